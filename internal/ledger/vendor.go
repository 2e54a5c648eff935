package ledger

import (
	"context"
	"errors"
	"strings"

	"go-stock-ledger/internal/models"
	"go-stock-ledger/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type VendorInput struct {
	Name    string
	Contact string
	Address string
}

// VendorUpdate carries the optional changes of UpdateVendor. Empty fields
// are left alone. SaleID attaches an existing sale to the vendor.
type VendorUpdate struct {
	Name    string
	Contact string
	Address string
	SaleID  string
}

func vendorLockKey(name string) string {
	return "vendor:" + models.VendorKey(name)
}

func findVendor(tx *gorm.DB, name string) (*models.Vendor, error) {
	var v models.Vendor
	err := tx.Where("name_key = ?", models.VendorKey(name)).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("vendor %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// liveRecords limits a vendor's records to sales still in the working sales
// list. A deleted sale stays in its category's history only.
func liveRecords(db *gorm.DB) *gorm.DB {
	return db.Where("removed = ?", false).Order("sold_at, id")
}

func loadVendor(tx *gorm.DB, name string) (*models.Vendor, error) {
	var v models.Vendor
	err := tx.Preload("Records", liveRecords).
		Where("name_key = ?", models.VendorKey(name)).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("vendor %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVendor registers a vendor. Names are unique case-insensitively and
// the contact must be a valid phone number; it is stored in E.164.
func (s *Service) CreateVendor(ctx context.Context, in VendorInput) (*models.Vendor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("vendor name is required")
	}
	contact, err := utils.NormalizePhone(in.Contact, s.phoneRegion)
	if err != nil {
		return nil, validationf("%v", err)
	}

	var out *models.Vendor
	err = s.inLock(ctx, vendorLockKey(name), func(tx *gorm.DB) error {
		if _, err := findVendor(tx, name); err == nil {
			return conflictf("vendor %q already exists", name)
		} else if !isNotFound(err) {
			return err
		}
		out = &models.Vendor{
			Name:    name,
			NameKey: models.VendorKey(name),
			Contact: contact,
			Address: strings.TrimSpace(in.Address),
		}
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("vendor", name).Info("vendor created")
	return out, nil
}

// GetVendor returns a vendor with its records (its sales) oldest first.
func (s *Service) GetVendor(ctx context.Context, name string) (*models.Vendor, error) {
	v, err := loadVendor(s.db.WithContext(ctx), name)
	return v, classify(err)
}

func (s *Service) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	err := s.db.WithContext(ctx).
		Preload("Records", liveRecords).
		Order("name").
		Find(&vendors).Error
	if err != nil {
		return nil, classify(err)
	}
	return vendors, nil
}

// UpdateVendor edits vendor details and optionally attaches a sale.
func (s *Service) UpdateVendor(ctx context.Context, name string, in VendorUpdate) (*models.Vendor, error) {
	newName := strings.TrimSpace(in.Name)
	var contact string
	if strings.TrimSpace(in.Contact) != "" {
		c, err := utils.NormalizePhone(in.Contact, s.phoneRegion)
		if err != nil {
			return nil, validationf("%v", err)
		}
		contact = c
	}

	finalName := name
	err := s.inLock(ctx, vendorLockKey(name), func(tx *gorm.DB) error {
		v, err := findVendor(tx, name)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if newName != "" && newName != v.Name {
			if models.VendorKey(newName) != v.NameKey {
				if _, err := findVendor(tx, newName); err == nil {
					return conflictf("vendor %q already exists", newName)
				} else if !isNotFound(err) {
					return err
				}
			}
			updates["name"] = newName
			updates["name_key"] = models.VendorKey(newName)
			finalName = newName
		}
		if contact != "" {
			updates["contact"] = contact
		}
		if addr := strings.TrimSpace(in.Address); addr != "" {
			updates["address"] = addr
		}
		if len(updates) > 0 {
			if err := tx.Model(v).Updates(updates).Error; err != nil {
				return err
			}
		}

		if saleID := strings.TrimSpace(in.SaleID); saleID != "" {
			return attachSale(tx, v, saleID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"vendor": name, "newName": finalName, "saleId": in.SaleID}).Info("vendor updated")
	return s.GetVendor(ctx, finalName)
}

// AppendRecord attaches an existing sale to the vendor's records.
func (s *Service) AppendRecord(ctx context.Context, name, saleID string) (*models.Vendor, error) {
	if strings.TrimSpace(saleID) == "" {
		return nil, validationf("sale id is required")
	}
	return s.UpdateVendor(ctx, name, VendorUpdate{SaleID: saleID})
}

func attachSale(tx *gorm.DB, v *models.Vendor, saleID string) error {
	var sale models.SaleRecord
	err := tx.Where("id = ? AND removed = ?", saleID, false).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundf("sale %q not found", saleID)
	}
	if err != nil {
		return err
	}
	if sale.VendorID != nil {
		if *sale.VendorID == v.ID {
			return nil
		}
		return conflictf("sale %q already belongs to another vendor", saleID)
	}
	return tx.Model(&sale).Update("vendor_id", v.ID).Error
}

// UpdateRecordStatus sets the payment status of one vendor record. The
// record is the sale itself, so the category's sale lists see the change.
func (s *Service) UpdateRecordStatus(ctx context.Context, name, recordID, status string) (*models.Vendor, error) {
	pt, ok := models.CanonicalPaymentType(status)
	if !ok {
		return nil, validationf("paymentStatus must be one of Cash, Bank, Unpaid")
	}

	err := s.inLock(ctx, vendorLockKey(name), func(tx *gorm.DB) error {
		v, err := findVendor(tx, name)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.SaleRecord{}).Where("id = ? AND vendor_id = ? AND removed = ?", recordID, v.ID, false).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFoundf("record %q not found for vendor %q", recordID, name)
		}
		return tx.Model(&models.SaleRecord{}).Where("id = ?", recordID).Update("payment_type", pt).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"vendor": name, "recordId": recordID, "paymentStatus": pt}).Info("vendor record status updated")
	return s.GetVendor(ctx, name)
}

// DeleteVendor removes the vendor. Its sales stay in their categories
// without the vendor reference.
func (s *Service) DeleteVendor(ctx context.Context, name string) error {
	err := s.inLock(ctx, vendorLockKey(name), func(tx *gorm.DB) error {
		v, err := findVendor(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.SaleRecord{}).Where("vendor_id = ?", v.ID).Update("vendor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(v).Error
	})
	if err != nil {
		return err
	}

	s.log.WithField("vendor", name).Info("vendor deleted")
	return nil
}
