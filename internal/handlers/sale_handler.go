package handlers

import (
	"net/http"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SaleRequest struct {
	UnitsSold     int             `json:"unitsSold" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	ClientName    string          `json:"clientName"`
	ClientContact string          `json:"clientContact"`
	PaymentType   string          `json:"paymentType" binding:"required"`
	VendorName    string          `json:"vendorName"`
}

type DeleteSaleRequest struct {
	SaleID string `json:"saleId" binding:"required"`
}

// --- GET: /sales ---
func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.Ledger.ListSales(c.Request.Context())
	if err != nil {
		h.respondError(c, "ListSales", err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// --- PUT: /sales/:category/:id ---
// :id is the purchase batch the units are sold from.
func (h *Handler) PostSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rec, err := h.Ledger.PostSale(c.Request.Context(), ledger.SaleInput{
		Category:      c.Param("category"),
		BatchID:       c.Param("id"),
		UnitsSold:     req.UnitsSold,
		UnitPrice:     req.UnitPrice,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		PaymentType:   req.PaymentType,
		VendorName:    req.VendorName,
	})
	if err != nil {
		h.respondError(c, "PostSale", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- DELETE: /sales/:category/:id and PUT: /deletesale/:category/:id ---
func (h *Handler) DeleteSale(c *gin.Context) {
	h.deleteSale(c, c.Param("id"))
}

// --- DELETE: /sales/:category --- with { saleId } in the body
func (h *Handler) DeleteSaleByBody(c *gin.Context) {
	var req DeleteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.deleteSale(c, req.SaleID)
}

func (h *Handler) deleteSale(c *gin.Context, saleID string) {
	rec, err := h.Ledger.DeleteSale(c.Request.Context(), c.Param("category"), saleID)
	if err != nil {
		h.respondError(c, "DeleteSale", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- PUT: /sales/:category/:id/payment ---
func (h *Handler) UpdateSalePayment(c *gin.Context) {
	var req PaymentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rec, err := h.Ledger.UpdateSalePaymentType(c.Request.Context(), c.Param("category"), c.Param("id"), req.PaymentType)
	if err != nil {
		h.respondError(c, "UpdateSalePayment", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
