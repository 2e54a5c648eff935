package handlers

import (
	"net/http"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateInventoryRequest creates a category. When Quantity is set the body
// is the flat purchase form and a purchase is posted instead.
type CreateInventoryRequest struct {
	Category      string          `json:"category" binding:"required"`
	SubCategories []string        `json:"subCategories"`
	SubCategory   string          `json:"subCategory"`
	Product       string          `json:"product"`
	Quantity      int             `json:"quantity" binding:"gte=0"`
	CostPerUnit   decimal.Decimal `json:"costPerUnit"`
	PaymentType   string          `json:"paymentType"`
}

type SubCategoryRequest struct {
	SubCategory string `json:"subCategory" binding:"required"`
}

type AdjustStocksRequest struct {
	AvailableStocks *int `json:"availableStocks" binding:"required,gte=0"`
}

type PaymentTypeRequest struct {
	PaymentType string `json:"paymentType" binding:"required"`
}

// --- GET: /inventory ---
func (h *Handler) ListInventory(c *gin.Context) {
	records, err := h.Ledger.ListInventory(c.Request.Context())
	if err != nil {
		h.respondError(c, "ListInventory", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// --- POST: /inventory ---
func (h *Handler) CreateInventory(c *gin.Context) {
	var req CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if req.Quantity > 0 {
		rec, err := h.Ledger.PostPurchase(c.Request.Context(), ledger.PurchaseInput{
			Category:    req.Category,
			SubCategory: req.SubCategory,
			Product:     req.Product,
			Quantity:    req.Quantity,
			CostPerUnit: req.CostPerUnit,
			PaymentType: req.PaymentType,
		})
		if err != nil {
			h.respondError(c, "CreateInventory", err)
			return
		}
		c.JSON(http.StatusCreated, rec)
		return
	}

	subs := req.SubCategories
	if req.SubCategory != "" {
		subs = append(subs, req.SubCategory)
	}
	rec, err := h.Ledger.CreateCategory(c.Request.Context(), req.Category, subs)
	if err != nil {
		h.respondError(c, "CreateInventory", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// --- GET: /inventory/:category ---
func (h *Handler) GetInventory(c *gin.Context) {
	rec, err := h.Ledger.GetInventory(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.respondError(c, "GetInventory", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- DELETE: /inventory/:category ---
func (h *Handler) DeleteInventory(c *gin.Context) {
	if err := h.Ledger.DeleteCategory(c.Request.Context(), c.Param("category")); err != nil {
		h.respondError(c, "DeleteInventory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// --- PUT: /inventory/:category/subcategories ---
func (h *Handler) AddSubCategory(c *gin.Context) {
	var req SubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rec, err := h.Ledger.AddSubCategory(c.Request.Context(), c.Param("category"), req.SubCategory)
	if err != nil {
		h.respondError(c, "AddSubCategory", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- GET: /inventory/:category/subcategories ---
func (h *Handler) ListSubCategories(c *gin.Context) {
	subs, err := h.Ledger.ListSubCategories(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.respondError(c, "ListSubCategories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subCategories": subs})
}

// --- PATCH: /inventory-item-stocks/category/:category ---
// Direct correction of the running stock counter.
func (h *Handler) AdjustStocks(c *gin.Context) {
	var req AdjustStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rec, err := h.Ledger.AdjustStocks(c.Request.Context(), c.Param("category"), *req.AvailableStocks)
	if err != nil {
		h.respondError(c, "AdjustStocks", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- PUT: /inventory/:category/purchases/:id/payment ---
func (h *Handler) UpdatePurchasePayment(c *gin.Context) {
	var req PaymentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rec, err := h.Ledger.UpdatePurchasePaymentType(c.Request.Context(), c.Param("category"), c.Param("id"), req.PaymentType)
	if err != nil {
		h.respondError(c, "UpdatePurchasePayment", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
