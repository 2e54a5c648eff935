package ledger

import (
	"context"
	"strings"

	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PurchaseInput struct {
	Category    string
	SubCategory string
	Product     string
	Quantity    int
	CostPerUnit decimal.Decimal
	PaymentType string
}

func (in *PurchaseInput) normalize() error {
	in.Category = strings.TrimSpace(in.Category)
	in.SubCategory = strings.TrimSpace(in.SubCategory)
	in.Product = strings.TrimSpace(in.Product)

	if in.Category == "" {
		return validationf("category is required")
	}
	if in.Quantity <= 0 {
		return validationf("quantity must be greater than zero")
	}
	if !in.CostPerUnit.IsPositive() {
		return validationf("costPerUnit must be greater than zero")
	}
	pt, ok := models.CanonicalPaymentType(in.PaymentType)
	if !ok {
		return validationf("paymentType must be one of Cash, Bank, Unpaid")
	}
	in.PaymentType = pt
	return nil
}

// PostPurchase records a new batch: it joins the working purchase list and
// the purchase history, raises available stock by the quantity, debits
// capital by quantity*costPerUnit and logs a Purchase transaction. A
// category seen for the first time is created.
func (s *Service) PostPurchase(ctx context.Context, in PurchaseInput) (*models.InventoryRecord, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	total := in.CostPerUnit.Mul(decimal.NewFromInt(int64(in.Quantity)))

	var out *models.InventoryRecord
	var batch models.PurchaseBatch
	err := s.inLock(ctx, categoryKey(in.Category), func(tx *gorm.DB) error {
		capital, err := lockCapital(tx)
		if err != nil {
			return err
		}

		rec, err := s.findOrCreateRecord(tx, in.Category)
		if err != nil {
			return err
		}
		if in.SubCategory != "" && !hasSubCategory(rec, in.SubCategory) {
			if err := appendSubCategory(tx, rec, in.SubCategory); err != nil {
				return err
			}
		}

		seq, err := nextSeq(tx, &models.PurchaseBatch{}, rec.ID)
		if err != nil {
			return err
		}
		batch = models.PurchaseBatch{
			InventoryRecordID: rec.ID,
			Seq:               seq,
			Category:          rec.Category,
			SubCategory:       in.SubCategory,
			Product:           in.Product,
			Quantity:          in.Quantity,
			InitialQuantity:   in.Quantity,
			CostPerUnit:       in.CostPerUnit,
			TotalAmount:       total,
			PaymentType:       in.PaymentType,
			CreatedAt:         s.now(),
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		if err := tx.Model(rec).Update("available_stocks", gorm.Expr("available_stocks + ?", in.Quantity)).Error; err != nil {
			return err
		}
		if err := s.postCapital(tx, capital, models.TransactionPurchase, rec.Category, in.SubCategory, total, batch.ID); err != nil {
			return err
		}

		out, err = loadDocument(tx, rec.Category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"category": in.Category,
		"batchId":  batch.ID,
		"quantity": in.Quantity,
		"amount":   total.String(),
	}).Info("purchase posted")
	return out, nil
}

// findOrCreateRecord locks the category row, creating it on first use, and
// returns it with its subcategories loaded.
func (s *Service) findOrCreateRecord(tx *gorm.DB, category string) (*models.InventoryRecord, error) {
	if _, err := findRecord(tx, category, true); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		if err := tx.Create(&models.InventoryRecord{Category: category}).Error; err != nil {
			return nil, err
		}
		s.log.WithField("category", category).Info("inventory category created by first purchase")
	}
	return loadDocument(tx, category)
}

// postCapital moves the balance (debit for purchases, credit for sales) and
// appends the matching transaction. capital must be the row lockCapital
// returned in the same tx; the new balance is computed exactly in Go.
func (s *Service) postCapital(tx *gorm.DB, capital *models.CapitalLedger, kind, category, subCategory string, amount decimal.Decimal, ref string) error {
	balance := capital.CapitalAmount.Sub(amount)
	if kind == models.TransactionSale {
		balance = capital.CapitalAmount.Add(amount)
	}
	if err := tx.Model(capital).Update("capital_amount", balance).Error; err != nil {
		return err
	}
	capital.CapitalAmount = balance
	return tx.Create(&models.Transaction{
		CapitalLedgerID: capital.ID,
		Category:        category,
		SubCategory:     subCategory,
		TransactionType: kind,
		Amount:          amount,
		ReferenceID:     ref,
		CreatedAt:       s.now(),
	}).Error
}
