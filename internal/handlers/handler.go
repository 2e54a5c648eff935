package handlers

import (
	"context"

	"go-stock-ledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Assistant answers free-text questions about the ledger.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Handler carries what the REST endpoints need. Assistant may be nil.
type Handler struct {
	Ledger    *ledger.Service
	DB        *gorm.DB
	Log       *logrus.Logger
	Assistant Assistant
}

func New(l *ledger.Service, db *gorm.DB, log *logrus.Logger, assistant Assistant) *Handler {
	return &Handler{Ledger: l, DB: db, Log: log, Assistant: assistant}
}

// Routes registers the ledger endpoints. Both groups are expected to be
// authenticated; admin additionally requires the admin role.
func (h *Handler) Routes(staff, admin gin.IRoutes) {
	// Inventory
	staff.GET("/inventory", h.ListInventory)
	staff.POST("/inventory", h.CreateInventory)
	staff.GET("/inventory/:category", h.GetInventory)
	admin.DELETE("/inventory/:category", h.DeleteInventory)
	staff.PUT("/inventory/:category/subcategories", h.AddSubCategory)
	staff.GET("/inventory/:category/subcategories", h.ListSubCategories)
	staff.PUT("/inventory/:category/purchases/:id/payment", h.UpdatePurchasePayment)
	staff.PUT("/inventory/PaymentUpdate/:category/:id", h.UpdatePurchasePayment)
	admin.PATCH("/inventory-item-stocks/category/:category", h.AdjustStocks)

	// Purchases
	staff.PUT("/purchase/:category", h.PostPurchase)
	staff.PUT("/purchase/:category/:id", h.DeletePurchase)

	// Sales
	staff.GET("/sales", h.ListSales)
	staff.PUT("/sales/:category/:id", h.PostSale)
	staff.DELETE("/sales/:category/:id", h.DeleteSale)
	staff.DELETE("/sales/:category", h.DeleteSaleByBody)
	staff.PUT("/sales/:category/:id/payment", h.UpdateSalePayment)
	staff.PUT("/deletesale/:category/:id", h.DeleteSale)

	// Capital
	staff.GET("/capital", h.GetCapital)
	admin.POST("/capital", h.CreateCapital)
	admin.PUT("/capital", h.UpdateCapital)
	staff.POST("/capital/transaction", h.AppendTransaction)
	staff.PUT("/capital/transaction", h.AppendTransaction)
	staff.GET("/capital/transactions", h.ListTransactions)

	// Vendors
	staff.GET("/vendor", h.ListVendors)
	staff.POST("/vendor", h.CreateVendor)
	staff.GET("/vendor/:name", h.GetVendor)
	staff.PUT("/vendor/:name", h.UpdateVendor)
	admin.DELETE("/vendor/:name", h.DeleteVendor)
	staff.PUT("/vendor/:name/:recordId", h.UpdateVendorRecord)

	// Reports
	staff.GET("/reports/profit", h.ProfitReport)
	staff.GET("/reports/balance-sheet", h.BalanceSheet)
	staff.GET("/reports/transactions/export", h.ExportTransactions)

	admin.POST("/ask", h.AskAI)
}
