package ledger

import (
	"errors"
	"fmt"

	"go-stock-ledger/internal/database"

	"gorm.io/gorm"
)

// Every error returned by the ledger wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// classify leaves ledger errors alone and files everything else under
// conflict (unique violations) or persistence.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrValidation, ErrNotFound, ErrInsufficientStock, ErrConflict, ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func insufficientf(requested, available int) error {
	return fmt.Errorf("%w: units sold %d exceed available quantity %d", ErrInsufficientStock, requested, available)
}
