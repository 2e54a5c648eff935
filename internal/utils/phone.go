package utils

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone validates a phone number for region and returns it in E.164
// form, e.g. "0300 1234567" in PK becomes "+923001234567".
func NormalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("phone number is required")
	}

	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", fmt.Errorf("phone number %q: %v", phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid", phone)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
