package ledger

import (
	"context"
	"strings"
	"time"

	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfitReport sums the working sales list over a period ending now.
type ProfitReport struct {
	Period      string          `json:"period"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Sales       int             `json:"sales"`
	UnitsSold   int             `json:"unitsSold"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
}

// PeriodStart returns the start of the calendar day, week (Monday), month or
// year containing now.
func PeriodStart(period string, now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "day":
		return day, true
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// ProfitForPeriod totals profit of sales made since the start of period
// (day, week, month or year).
func (s *Service) ProfitForPeriod(ctx context.Context, period string) (*ProfitReport, error) {
	now := s.now()
	from, ok := PeriodStart(period, now)
	if !ok {
		return nil, validationf("period must be one of day, week, month, year")
	}

	var sales []models.SaleRecord
	err := s.db.WithContext(ctx).
		Where("removed = ? AND sold_at >= ? AND sold_at <= ?", false, from, now).
		Find(&sales).Error
	if err != nil {
		return nil, classify(err)
	}

	report := &ProfitReport{
		Period:      strings.ToLower(strings.TrimSpace(period)),
		From:        from,
		To:          now,
		Sales:       len(sales),
		TotalAmount: decimal.Zero,
		TotalProfit: decimal.Zero,
	}
	for _, sale := range sales {
		report.UnitsSold += sale.UnitsSold
		report.TotalAmount = report.TotalAmount.Add(sale.Amount)
		report.TotalProfit = report.TotalProfit.Add(sale.Profit)
	}
	return report, nil
}

// ListSales returns the working sales of every category, newest last.
func (s *Service) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	sales := []models.SaleRecord{}
	if err := s.db.WithContext(ctx).Where("removed = ?", false).Order("sold_at, id").Find(&sales).Error; err != nil {
		return nil, classify(err)
	}
	return sales, nil
}

// VendorRecordLine is a vendor record with the vendor it belongs to.
type VendorRecordLine struct {
	VendorName string `json:"vendorName"`
	models.VendorRecord
}

type BalanceTotals struct {
	Units  int             `json:"units"`
	Amount decimal.Decimal `json:"amount"`
	Profit decimal.Decimal `json:"profit"`
}

// BalanceSheet lists everything recorded under one payment type: walk-in
// sales, vendor records and purchases from the history.
type BalanceSheet struct {
	PaymentType    string                 `json:"paymentType"`
	Sales          []models.SaleRecord    `json:"sales"`
	VendorRecords  []VendorRecordLine     `json:"vendorRecords"`
	Purchases      []models.PurchaseBatch `json:"purchases"`
	SalesTotals    BalanceTotals          `json:"salesTotals"`
	VendorTotals   BalanceTotals          `json:"vendorTotals"`
	PurchaseUnits  int                    `json:"purchaseUnits"`
	PurchaseAmount decimal.Decimal        `json:"purchaseAmount"`
}

func (s *Service) BalanceSheet(ctx context.Context, paymentType string) (*BalanceSheet, error) {
	pt, ok := models.CanonicalPaymentType(paymentType)
	if !ok {
		return nil, validationf("paymentType must be one of Cash, Bank, Unpaid")
	}
	db := s.db.WithContext(ctx)

	var sales []models.SaleRecord
	if err := db.Where("payment_type = ? AND removed = ? AND vendor_id IS NULL", pt, false).Order("sold_at, id").Find(&sales).Error; err != nil {
		return nil, classify(err)
	}

	var vendors []models.Vendor
	err := db.Preload("Records", func(db *gorm.DB) *gorm.DB { return liveRecords(db).Where("payment_type = ?", pt) }).Order("name").Find(&vendors).Error
	if err != nil {
		return nil, classify(err)
	}

	var batches []models.PurchaseBatch
	if err := db.Where("payment_type = ?", pt).Order("created_at, seq").Find(&batches).Error; err != nil {
		return nil, classify(err)
	}

	sheet := &BalanceSheet{
		PaymentType:    pt,
		Sales:          []models.SaleRecord{},
		VendorRecords:  []VendorRecordLine{},
		Purchases:      []models.PurchaseBatch{},
		SalesTotals:    BalanceTotals{Amount: decimal.Zero, Profit: decimal.Zero},
		VendorTotals:   BalanceTotals{Amount: decimal.Zero, Profit: decimal.Zero},
		PurchaseAmount: decimal.Zero,
	}
	for _, sale := range sales {
		sheet.Sales = append(sheet.Sales, sale)
		sheet.SalesTotals.add(sale)
	}
	for _, v := range vendors {
		for _, r := range v.Records {
			sheet.VendorRecords = append(sheet.VendorRecords, VendorRecordLine{VendorName: v.Name, VendorRecord: r.VendorRecord()})
			sheet.VendorTotals.add(r)
		}
	}
	for _, b := range batches {
		b.Quantity = b.InitialQuantity
		sheet.Purchases = append(sheet.Purchases, b)
		sheet.PurchaseUnits += b.InitialQuantity
		sheet.PurchaseAmount = sheet.PurchaseAmount.Add(b.TotalAmount)
	}
	return sheet, nil
}

func (t *BalanceTotals) add(sale models.SaleRecord) {
	t.Units += sale.UnitsSold
	t.Amount = t.Amount.Add(sale.Amount)
	t.Profit = t.Profit.Add(sale.Profit)
}
