package handlers

import (
	"net/http"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
)

type VendorRequest struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact" binding:"required"`
	Address string `json:"address"`
}

type VendorUpdateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
	SaleID  string `json:"saleId"`
}

type RecordStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// --- GET: /vendor ---
func (h *Handler) ListVendors(c *gin.Context) {
	vendors, err := h.Ledger.ListVendors(c.Request.Context())
	if err != nil {
		h.respondError(c, "ListVendors", err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// --- POST: /vendor ---
func (h *Handler) CreateVendor(c *gin.Context) {
	var req VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.Ledger.CreateVendor(c.Request.Context(), ledger.VendorInput{
		Name:    req.Name,
		Contact: req.Contact,
		Address: req.Address,
	})
	if err != nil {
		h.respondError(c, "CreateVendor", err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// --- GET: /vendor/:name ---
func (h *Handler) GetVendor(c *gin.Context) {
	v, err := h.Ledger.GetVendor(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, "GetVendor", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// --- PUT: /vendor/:name ---
// A saleId in the body appends that sale to the vendor's records.
func (h *Handler) UpdateVendor(c *gin.Context) {
	var req VendorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.Ledger.UpdateVendor(c.Request.Context(), c.Param("name"), ledger.VendorUpdate{
		Name:    req.Name,
		Contact: req.Contact,
		Address: req.Address,
		SaleID:  req.SaleID,
	})
	if err != nil {
		h.respondError(c, "UpdateVendor", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// --- DELETE: /vendor/:name ---
func (h *Handler) DeleteVendor(c *gin.Context) {
	if err := h.Ledger.DeleteVendor(c.Request.Context(), c.Param("name")); err != nil {
		h.respondError(c, "DeleteVendor", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendor deleted"})
}

// --- PUT: /vendor/:name/:recordId ---
func (h *Handler) UpdateVendorRecord(c *gin.Context) {
	var req RecordStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.Ledger.UpdateRecordStatus(c.Request.Context(), c.Param("name"), c.Param("recordId"), req.PaymentStatus)
	if err != nil {
		h.respondError(c, "UpdateVendorRecord", err)
		return
	}
	c.JSON(http.StatusOK, v)
}
