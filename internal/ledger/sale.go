package ledger

import (
	"context"
	"errors"
	"strings"

	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SaleInput struct {
	Category      string
	BatchID       string
	UnitsSold     int
	UnitPrice     decimal.Decimal
	ClientName    string
	ClientContact string
	PaymentType   string
	// VendorName makes this a vendor credit sale.
	VendorName string
}

func (in *SaleInput) normalize() error {
	in.Category = strings.TrimSpace(in.Category)
	in.BatchID = strings.TrimSpace(in.BatchID)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientContact = strings.TrimSpace(in.ClientContact)
	in.VendorName = strings.TrimSpace(in.VendorName)

	if in.Category == "" || in.BatchID == "" {
		return validationf("category and purchase id are required")
	}
	if in.UnitsSold <= 0 {
		return validationf("unitsSold must be greater than zero")
	}
	if !in.UnitPrice.IsPositive() {
		return validationf("unitPrice must be greater than zero")
	}
	pt, ok := models.CanonicalPaymentType(in.PaymentType)
	if !ok {
		return validationf("paymentType must be one of Cash, Bank, Unpaid")
	}
	in.PaymentType = pt
	return nil
}

// PostSale sells units out of one batch. The batch quantity is decremented
// with a conditional update so it can never go below zero; a sale larger
// than the batch is rejected with ErrInsufficientStock and nothing changes.
// The sale freezes the batch cost, joins the working sales list and the
// history, lowers available stock and credits capital with a Sale
// transaction.
func (s *Service) PostSale(ctx context.Context, in SaleInput) (*models.InventoryRecord, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var out *models.InventoryRecord
	var sale models.SaleRecord
	err := s.inLock(ctx, categoryKey(in.Category), func(tx *gorm.DB) error {
		capital, err := lockCapital(tx)
		if err != nil {
			return err
		}
		rec, err := findRecord(tx, in.Category, true)
		if err != nil {
			return err
		}

		var batch models.PurchaseBatch
		err = tx.Where("id = ? AND inventory_record_id = ? AND removed = ?", in.BatchID, rec.ID, false).First(&batch).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("purchase record %q not found in %q", in.BatchID, in.Category)
		}
		if err != nil {
			return err
		}
		if in.UnitsSold > batch.Quantity {
			return insufficientf(in.UnitsSold, batch.Quantity)
		}

		res := tx.Model(&models.PurchaseBatch{}).
			Where("id = ? AND quantity >= ?", batch.ID, in.UnitsSold).
			Update("quantity", gorm.Expr("quantity - ?", in.UnitsSold))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return insufficientf(in.UnitsSold, batch.Quantity)
		}

		var vendorID *uint
		if in.VendorName != "" {
			vendor, err := findVendor(tx, in.VendorName)
			if err != nil {
				return err
			}
			vendorID = &vendor.ID
		}

		seq, err := nextSeq(tx, &models.SaleRecord{}, rec.ID)
		if err != nil {
			return err
		}
		units := decimal.NewFromInt(int64(in.UnitsSold))
		sale = models.SaleRecord{
			InventoryRecordID: rec.ID,
			Seq:               seq,
			BatchID:           batch.ID,
			VendorID:          vendorID,
			Category:          rec.Category,
			SubCategory:       batch.SubCategory,
			Product:           batch.Product,
			UnitsSold:         in.UnitsSold,
			UnitPrice:         in.UnitPrice,
			CostPerUnit:       batch.CostPerUnit,
			Amount:            in.UnitPrice.Mul(units),
			Profit:            in.UnitPrice.Sub(batch.CostPerUnit).Mul(units),
			ClientName:        in.ClientName,
			ClientContact:     in.ClientContact,
			PaymentType:       in.PaymentType,
			SoldAt:            s.now(),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if err := tx.Model(rec).Update("available_stocks", gorm.Expr("available_stocks - ?", in.UnitsSold)).Error; err != nil {
			return err
		}
		if err := s.postCapital(tx, capital, models.TransactionSale, rec.Category, batch.SubCategory, sale.Amount, sale.ID); err != nil {
			return err
		}

		out, err = loadDocument(tx, rec.Category)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.log.WithFields(logrus.Fields{"category": in.Category, "batchId": in.BatchID, "unitsSold": in.UnitsSold}).Warn("sale rejected")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"category":  in.Category,
		"batchId":   in.BatchID,
		"saleId":    sale.ID,
		"unitsSold": in.UnitsSold,
		"amount":    sale.Amount.String(),
		"profit":    sale.Profit.String(),
		"vendor":    in.VendorName,
	}).Info("sale posted")
	return out, nil
}
