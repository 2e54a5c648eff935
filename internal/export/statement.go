package export

import (
	"fmt"
	"io"
	"time"

	"go-stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Transactions"

	// ContentType is the MIME type of the workbook written by WriteStatement.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headings = []any{"Date", "Type", "Category", "Sub Category", "Amount", "Reference"}

// WriteStatement writes the capital transactions as an xlsx workbook with a
// totals block below the rows.
func WriteStatement(w io.Writer, txns []models.Transaction, balance decimal.Decimal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A1", &headings); err != nil {
		return err
	}

	purchases, sales := decimal.Zero, decimal.Zero
	for i, t := range txns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.CreatedAt.UTC().Format(time.DateTime),
			t.TransactionType,
			t.Category,
			t.SubCategory,
			t.Amount.InexactFloat64(),
			t.ReferenceID,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
		switch t.TransactionType {
		case models.TransactionPurchase:
			purchases = purchases.Add(t.Amount)
		case models.TransactionSale:
			sales = sales.Add(t.Amount)
		}
	}

	totals := [][]any{
		{"Total purchases", purchases.InexactFloat64()},
		{"Total sales", sales.InexactFloat64()},
		{"Capital balance", balance.InexactFloat64()},
	}
	start := len(txns) + 3
	for i, row := range totals {
		cell := fmt.Sprintf("D%d", start+i)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "F", 18); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
