package handlers

import (
	"net/http"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PurchaseRequest struct {
	SubCategory string          `json:"subCategory"`
	Product     string          `json:"product"`
	Quantity    int             `json:"quantity" binding:"required"`
	CostPerUnit decimal.Decimal `json:"costPerUnit"`
	PaymentType string          `json:"paymentType" binding:"required"`
}

// --- PUT: /purchase/:category ---
func (h *Handler) PostPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rec, err := h.Ledger.PostPurchase(c.Request.Context(), ledger.PurchaseInput{
		Category:    c.Param("category"),
		SubCategory: req.SubCategory,
		Product:     req.Product,
		Quantity:    req.Quantity,
		CostPerUnit: req.CostPerUnit,
		PaymentType: req.PaymentType,
	})
	if err != nil {
		h.respondError(c, "PostPurchase", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- PUT: /purchase/:category/:id ---
// Takes the batch out of the working purchase list.
func (h *Handler) DeletePurchase(c *gin.Context) {
	rec, err := h.Ledger.DeletePurchase(c.Request.Context(), c.Param("category"), c.Param("id"))
	if err != nil {
		h.respondError(c, "DeletePurchase", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
