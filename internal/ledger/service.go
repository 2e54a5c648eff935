// Package ledger keeps stock, sales, capital and vendor credit consistent.
//
// Each mutation takes the lock for its category (or the capital ledger),
// then runs in one database transaction that covers every row it touches,
// including the capital balance and its transaction log.
package ledger

import (
	"context"
	"errors"
	"time"

	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/locker"
	"go-stock-ledger/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const capitalLockKey = "capital"

type Service struct {
	db          *gorm.DB
	locks       locker.Locker
	log         *logrus.Logger
	now         func() time.Time
	phoneRegion string
}

type Option func(*Service)

// WithClock replaces the UTC wall clock used for createdAt/soldAt stamps
// and report periods.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPhoneRegion sets the region vendor contacts are parsed in.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.phoneRegion = region }
}

func NewService(db *gorm.DB, locks locker.Locker, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		db:          db,
		locks:       locks,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		phoneRegion: "PK",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inLock runs fn in a transaction while holding key.
func (s *Service) inLock(ctx context.Context, key string, fn func(tx *gorm.DB) error) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		config.LogError(s.log, "ledger", "inLock", "obtain lock", key, err)
		return errors.Join(ErrPersistence, err)
	}
	defer unlock()

	return classify(s.db.WithContext(ctx).Transaction(fn))
}

func categoryKey(category string) string {
	return "inventory:" + category
}

// findRecord loads the bare category row, locking it when forUpdate is set.
func findRecord(tx *gorm.DB, category string, forUpdate bool) (*models.InventoryRecord, error) {
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec models.InventoryRecord
	if err := q.Where("category = ?", category).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("inventory category %q not found", category)
		}
		return nil, err
	}
	return &rec, nil
}

// loadDocument loads a category with its subcategories, batches and sales
// in insertion order.
func loadDocument(tx *gorm.DB, category string) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := preloadDocument(tx).Where("category = ?", category).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("inventory category %q not found", category)
		}
		return nil, err
	}
	return &rec, nil
}

func preloadDocument(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Batches", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Sales", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

// lockCapital returns the capital row locked for the rest of tx.
func lockCapital(tx *gorm.DB) (*models.CapitalLedger, error) {
	var capital models.CapitalLedger
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&capital, models.CapitalLedgerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("capital ledger has not been created")
		}
		return nil, err
	}
	return &capital, nil
}

func nextSeq(tx *gorm.DB, model any, recordID uint) (int, error) {
	var max int
	err := tx.Model(model).
		Where("inventory_record_id = ?", recordID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	return max + 1, err
}
