package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateCapital initialises the single capital ledger. A second call fails
// with ErrConflict.
func (s *Service) CreateCapital(ctx context.Context, amount decimal.Decimal) (*models.CapitalLedger, error) {
	if amount.IsNegative() {
		return nil, validationf("capitalAmount must not be negative")
	}

	var out *models.CapitalLedger
	err := s.inLock(ctx, capitalLockKey, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.CapitalLedger{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("capital amount already exists")
		}
		out = &models.CapitalLedger{
			ID:            models.CapitalLedgerID,
			CapitalAmount: amount,
			Transactions:  []models.Transaction{},
		}
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("capitalAmount", amount.String()).Info("capital ledger created")
	return out, nil
}

// UpdateCapital overwrites the balance. No delta check is made.
func (s *Service) UpdateCapital(ctx context.Context, amount decimal.Decimal) (*models.CapitalLedger, error) {
	var before decimal.Decimal
	err := s.inLock(ctx, capitalLockKey, func(tx *gorm.DB) error {
		capital, err := lockCapital(tx)
		if err != nil {
			return err
		}
		before = capital.CapitalAmount
		return tx.Model(capital).Update("capital_amount", amount).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"before": before.String(), "after": amount.String()}).Warn("capital amount overwritten")
	return s.GetCapital(ctx)
}

// GetCapital returns the balance with its transaction log.
func (s *Service) GetCapital(ctx context.Context) (*models.CapitalLedger, error) {
	var capital models.CapitalLedger
	err := s.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&capital, models.CapitalLedgerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("capital not found")
	}
	if err != nil {
		return nil, classify(err)
	}
	return &capital, nil
}

type TransactionInput struct {
	Category        string
	SubCategory     string
	TransactionType string
	Amount          decimal.Decimal
}

// AppendTransaction adds an entry to the log without touching the balance.
func (s *Service) AppendTransaction(ctx context.Context, in TransactionInput) (*models.CapitalLedger, error) {
	kind, ok := canonicalTransactionType(in.TransactionType)
	if !ok {
		return nil, validationf("transactionType must be Purchase or Sale")
	}
	if !in.Amount.IsPositive() {
		return nil, validationf("amount must be greater than zero")
	}

	err := s.inLock(ctx, capitalLockKey, func(tx *gorm.DB) error {
		capital, err := lockCapital(tx)
		if err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			CapitalLedgerID: capital.ID,
			Category:        strings.TrimSpace(in.Category),
			SubCategory:     strings.TrimSpace(in.SubCategory),
			TransactionType: kind,
			Amount:          in.Amount,
			CreatedAt:       s.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"type": kind, "amount": in.Amount.String()}).Info("capital transaction appended")
	return s.GetCapital(ctx)
}

// TransactionFilter narrows ListTransactions. Zero values match everything;
// From and To are inclusive.
type TransactionFilter struct {
	TransactionType string
	From            *time.Time
	To              *time.Time
}

// ListTransactions returns the capital log in posting order.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.CapitalLedger{}).Count(&n).Error; err != nil {
		return nil, classify(err)
	}
	if n == 0 {
		return nil, notFoundf("capital not found")
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if f.TransactionType != "" {
		kind, ok := canonicalTransactionType(f.TransactionType)
		if !ok {
			return nil, validationf("transactionType must be Purchase or Sale")
		}
		q = q.Where("transaction_type = ?", kind)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	txns := []models.Transaction{}
	if err := q.Order("id").Find(&txns).Error; err != nil {
		return nil, classify(err)
	}
	return txns, nil
}

func canonicalTransactionType(s string) (string, bool) {
	for _, kind := range []string{models.TransactionPurchase, models.TransactionSale} {
		if strings.EqualFold(strings.TrimSpace(s), kind) {
			return kind, true
		}
	}
	return "", false
}
