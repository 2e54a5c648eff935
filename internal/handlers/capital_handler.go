package handlers

import (
	"net/http"
	"time"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CapitalRequest struct {
	CapitalAmount *decimal.Decimal `json:"capitalAmount" binding:"required"`
}

type TransactionRequest struct {
	Category        string          `json:"category"`
	SubCategory     string          `json:"subCategory"`
	TransactionType string          `json:"transactionType" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
}

// --- GET: /capital ---
func (h *Handler) GetCapital(c *gin.Context) {
	capital, err := h.Ledger.GetCapital(c.Request.Context())
	if err != nil {
		h.respondError(c, "GetCapital", err)
		return
	}
	c.JSON(http.StatusOK, capital)
}

// --- POST: /capital ---
func (h *Handler) CreateCapital(c *gin.Context) {
	var req CapitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	capital, err := h.Ledger.CreateCapital(c.Request.Context(), *req.CapitalAmount)
	if err != nil {
		h.respondError(c, "CreateCapital", err)
		return
	}
	c.JSON(http.StatusCreated, capital)
}

// --- PUT: /capital ---
func (h *Handler) UpdateCapital(c *gin.Context) {
	var req CapitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	capital, err := h.Ledger.UpdateCapital(c.Request.Context(), *req.CapitalAmount)
	if err != nil {
		h.respondError(c, "UpdateCapital", err)
		return
	}
	c.JSON(http.StatusOK, capital)
}

// --- POST/PUT: /capital/transaction ---
func (h *Handler) AppendTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	capital, err := h.Ledger.AppendTransaction(c.Request.Context(), ledger.TransactionInput{
		Category:        req.Category,
		SubCategory:     req.SubCategory,
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
	})
	if err != nil {
		h.respondError(c, "AppendTransaction", err)
		return
	}
	c.JSON(http.StatusOK, capital)
}

// --- GET: /capital/transactions?type=&from=YYYY-MM-DD&to=YYYY-MM-DD ---
func (h *Handler) ListTransactions(c *gin.Context) {
	filter, ok := transactionFilter(c)
	if !ok {
		return
	}
	txns, err := h.Ledger.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "ListTransactions", err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// transactionFilter reads the query filters. The to date covers the whole
// day. It writes the 400 itself and reports false on bad input.
func transactionFilter(c *gin.Context) (ledger.TransactionFilter, bool) {
	f := ledger.TransactionFilter{TransactionType: c.Query("type")}
	if s := c.Query("from"); s != "" {
		from, err := time.Parse(time.DateOnly, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "from must be a YYYY-MM-DD date"})
			return f, false
		}
		f.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := time.Parse(time.DateOnly, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "to must be a YYYY-MM-DD date"})
			return f, false
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.To = &to
	}
	return f, true
}
