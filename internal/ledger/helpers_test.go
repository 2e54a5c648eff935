package ledger_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"go-stock-ledger/internal/database"
	"go-stock-ledger/internal/ledger"
	"go-stock-ledger/internal/locker"
	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(t *testing.T) (*ledger.Service, *fakeClock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.OpenSQLite(":memory:", log)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)}
	svc := ledger.NewService(db, locker.NewLocal(), log,
		ledger.WithClock(clock.Now),
		ledger.WithPhoneRegion("US"),
	)
	return svc, clock
}

// newFundedService returns a service whose capital ledger starts at amount.
func newFundedService(t *testing.T, amount int64) (*ledger.Service, *fakeClock) {
	t.Helper()
	svc, clock := newService(t)
	if _, err := svc.CreateCapital(context.Background(), decimal.NewFromInt(amount)); err != nil {
		t.Fatalf("CreateCapital: %v", err)
	}
	return svc, clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func purchase(t *testing.T, svc *ledger.Service, category string, qty int, cost string) *models.InventoryRecord {
	t.Helper()
	rec, err := svc.PostPurchase(context.Background(), ledger.PurchaseInput{
		Category:    category,
		SubCategory: "Cat6",
		Product:     "Patch cable",
		Quantity:    qty,
		CostPerUnit: dec(cost),
		PaymentType: models.PaymentCash,
	})
	if err != nil {
		t.Fatalf("PostPurchase: %v", err)
	}
	return rec
}

func lastBatch(t *testing.T, rec *models.InventoryRecord) models.PurchaseBatch {
	t.Helper()
	doc := rec.Document()
	if len(doc.Purchases) == 0 {
		t.Fatalf("category %q has no purchases", rec.Category)
	}
	return doc.Purchases[len(doc.Purchases)-1]
}

func sell(svc *ledger.Service, category, batchID string, units int, price string) (*models.InventoryRecord, error) {
	return svc.PostSale(context.Background(), ledger.SaleInput{
		Category:    category,
		BatchID:     batchID,
		UnitsSold:   units,
		UnitPrice:   dec(price),
		ClientName:  "Walk-in",
		PaymentType: models.PaymentCash,
	})
}

func capitalAmount(t *testing.T, svc *ledger.Service) decimal.Decimal {
	t.Helper()
	c, err := svc.GetCapital(context.Background())
	if err != nil {
		t.Fatalf("GetCapital: %v", err)
	}
	return c.CapitalAmount
}
