package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"go-stock-ledger/internal/export"

	"github.com/gin-gonic/gin"
)

// --- GET: /reports/profit?period=day|week|month|year ---
func (h *Handler) ProfitReport(c *gin.Context) {
	report, err := h.Ledger.ProfitForPeriod(c.Request.Context(), c.DefaultQuery("period", "day"))
	if err != nil {
		h.respondError(c, "ProfitReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /reports/balance-sheet?paymentType=Cash|Bank|Unpaid ---
func (h *Handler) BalanceSheet(c *gin.Context) {
	sheet, err := h.Ledger.BalanceSheet(c.Request.Context(), c.Query("paymentType"))
	if err != nil {
		h.respondError(c, "BalanceSheet", err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// --- GET: /reports/transactions/export ---
// Same filters as /capital/transactions, delivered as a workbook.
func (h *Handler) ExportTransactions(c *gin.Context) {
	filter, ok := transactionFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	capital, err := h.Ledger.GetCapital(ctx)
	if err != nil {
		h.respondError(c, "ExportTransactions", err)
		return
	}
	txns, err := h.Ledger.ListTransactions(ctx, filter)
	if err != nil {
		h.respondError(c, "ExportTransactions", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteStatement(&buf, txns, capital.CapitalAmount); err != nil {
		h.respondError(c, "ExportTransactions", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "capital-transactions.xlsx"))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
