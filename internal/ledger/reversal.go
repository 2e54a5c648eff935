package ledger

import (
	"context"
	"errors"
	"strings"

	"go-stock-ledger/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeletePurchase takes a batch out of the working purchase list and lowers
// available stock by what was still left in it. The purchase history and
// the capital ledger are left as they are.
func (s *Service) DeletePurchase(ctx context.Context, category, batchID string) (*models.InventoryRecord, error) {
	category = strings.TrimSpace(category)

	var out *models.InventoryRecord
	var removedQty, stocksAfter int
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := findRecord(tx, category, true)
		if err != nil {
			return err
		}

		var batch models.PurchaseBatch
		err = tx.Where("id = ? AND inventory_record_id = ? AND removed = ?", batchID, rec.ID, false).First(&batch).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundf("purchase record %q not found in %q", batchID, category)
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&batch).Update("removed", true).Error; err != nil {
			return err
		}

		removedQty = batch.Quantity
		stocksAfter = rec.AvailableStocks - batch.Quantity
		if stocksAfter < 0 {
			// Only reachable after a manual stock adjustment.
			s.log.WithFields(logrus.Fields{"category": category, "batchId": batchID, "availableStocks": rec.AvailableStocks, "remaining": batch.Quantity}).
				Warn("available stocks lower than batch remainder; clamping to zero")
			stocksAfter = 0
		}
		if err := tx.Model(rec).Update("available_stocks", stocksAfter).Error; err != nil {
			return err
		}

		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "batchId": batchID, "removedQuantity": removedQty, "availableStocks": stocksAfter}).Info("purchase removed")
	return out, nil
}

// DeleteSale takes a sale out of the working sales list. It is a record
// correction: batch quantity, available stock and capital are not restored
// and the sale stays in the sales history.
func (s *Service) DeleteSale(ctx context.Context, category, saleID string) (*models.InventoryRecord, error) {
	category = strings.TrimSpace(category)

	var out *models.InventoryRecord
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := findRecord(tx, category, true)
		if err != nil {
			return err
		}
		res := tx.Model(&models.SaleRecord{}).
			Where("id = ? AND inventory_record_id = ? AND removed = ?", saleID, rec.ID, false).
			Update("removed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundf("sale %q not found in %q", saleID, category)
		}
		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "saleId": saleID}).Info("sale removed")
	return out, nil
}

// UpdatePurchasePaymentType changes the payment type of any batch of the
// category, including ones only left in the history.
func (s *Service) UpdatePurchasePaymentType(ctx context.Context, category, batchID, paymentType string) (*models.InventoryRecord, error) {
	return s.updatePaymentType(ctx, category, batchID, paymentType, &models.PurchaseBatch{})
}

// UpdateSalePaymentType changes the payment type of one sale of the category.
func (s *Service) UpdateSalePaymentType(ctx context.Context, category, saleID, paymentType string) (*models.InventoryRecord, error) {
	return s.updatePaymentType(ctx, category, saleID, paymentType, &models.SaleRecord{})
}

func (s *Service) updatePaymentType(ctx context.Context, category, id, paymentType string, model any) (*models.InventoryRecord, error) {
	pt, ok := models.CanonicalPaymentType(paymentType)
	if !ok {
		return nil, validationf("paymentType must be one of Cash, Bank, Unpaid")
	}
	category = strings.TrimSpace(category)

	var out *models.InventoryRecord
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := findRecord(tx, category, false)
		if err != nil {
			return err
		}
		// Checked separately: MySQL reports zero affected rows when the
		// value does not change.
		var n int64
		if err := tx.Model(model).Where("id = ? AND inventory_record_id = ?", id, rec.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFoundf("record %q not found in %q", id, category)
		}
		if err := tx.Model(model).Where("id = ?", id).Update("payment_type", pt).Error; err != nil {
			return err
		}
		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "recordId": id, "paymentType": pt}).Info("payment type updated")
	return out, nil
}
