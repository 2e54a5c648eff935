package models

import (
	"encoding/json"
	"time"
)

// InventoryDocument is the shape the client reads for one category.
type InventoryDocument struct {
	ID               uint            `json:"id"`
	Category         string          `json:"category"`
	SubCategories    []string        `json:"subCategories"`
	AvailableStocks  int             `json:"availableStocks"`
	Purchases        []PurchaseBatch `json:"purchases"`
	PurchasesHistory []PurchaseBatch `json:"purchasesHistory"`
	Sales            []SaleRecord    `json:"sales"`
	SalesHistory     []SaleRecord    `json:"salesHistory"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Document projects the stored rows onto the working lists and histories.
// Batches and sales must already be ordered by Seq.
func (r InventoryRecord) Document() InventoryDocument {
	doc := InventoryDocument{
		ID:               r.ID,
		Category:         r.Category,
		SubCategories:    r.SubCategoryNames(),
		AvailableStocks:  r.AvailableStocks,
		Purchases:        []PurchaseBatch{},
		PurchasesHistory: []PurchaseBatch{},
		Sales:            []SaleRecord{},
		SalesHistory:     []SaleRecord{},
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}

	for _, b := range r.Batches {
		if !b.Removed {
			doc.Purchases = append(doc.Purchases, b)
		}
		h := b
		h.Quantity = b.InitialQuantity
		doc.PurchasesHistory = append(doc.PurchasesHistory, h)
	}
	for _, s := range r.Sales {
		if !s.Removed {
			doc.Sales = append(doc.Sales, s)
		}
		doc.SalesHistory = append(doc.SalesHistory, s)
	}
	return doc
}

func (r InventoryRecord) SubCategoryNames() []string {
	names := make([]string, 0, len(r.SubCategories))
	for _, sc := range r.SubCategories {
		names = append(names, sc.Name)
	}
	return names
}

func (r InventoryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}
