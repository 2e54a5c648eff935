package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// The browser client reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Payment types accepted on purchases, sales and vendor records.
const (
	PaymentCash   = "Cash"
	PaymentBank   = "Bank"
	PaymentUnpaid = "Unpaid"
)

// Capital transaction types.
const (
	TransactionPurchase = "Purchase"
	TransactionSale     = "Sale"
)

// CanonicalPaymentType maps user input onto one of the known payment types.
// The second result is false when the input is not a payment type.
func CanonicalPaymentType(s string) (string, bool) {
	for _, pt := range []string{PaymentCash, PaymentBank, PaymentUnpaid} {
		if strings.EqualFold(strings.TrimSpace(s), pt) {
			return pt, true
		}
	}
	return "", false
}

// User - staff account used to obtain a bearer token
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"size:20" json:"role"` // 'admin', 'staff'
	CreatedAt    time.Time `json:"created_at"`
}

// InventoryRecord is the per-category stock document. The working lists and
// the audit histories are projections of the same batch and sale rows.
type InventoryRecord struct {
	ID              uint            `gorm:"primaryKey"`
	Category        string          `gorm:"uniqueIndex;size:100;not null"`
	AvailableStocks int             `gorm:"not null;default:0"`
	SubCategories   []SubCategory   `gorm:"foreignKey:InventoryRecordID"`
	Batches         []PurchaseBatch `gorm:"foreignKey:InventoryRecordID"`
	Sales           []SaleRecord    `gorm:"foreignKey:InventoryRecordID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SubCategory struct {
	ID                uint   `gorm:"primaryKey"`
	InventoryRecordID uint   `gorm:"index;not null"`
	Name              string `gorm:"size:100;not null"`
	Position          int    `gorm:"not null"`
}

// PurchaseBatch - one purchased lot. Quantity is what is left to sell;
// InitialQuantity is what was bought and is what the history shows.
type PurchaseBatch struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	InventoryRecordID uint            `gorm:"index;not null" json:"-"`
	Seq               int             `gorm:"not null" json:"-"`
	Category          string          `gorm:"size:100" json:"category"`
	SubCategory       string          `gorm:"size:100" json:"subCategory"`
	Product           string          `gorm:"size:150" json:"product"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	InitialQuantity   int             `gorm:"not null" json:"initialQuantity"`
	CostPerUnit       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"costPerUnit"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalAmount"`
	PaymentType       string          `gorm:"size:20" json:"paymentType"`
	Removed           bool            `gorm:"index;not null;default:false" json:"-"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func (b *PurchaseBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Exhausted reports whether nothing is left to sell from the batch.
func (b PurchaseBatch) Exhausted() bool {
	return b.Quantity <= 0
}

func (b PurchaseBatch) MarshalJSON() ([]byte, error) {
	type batch PurchaseBatch
	return json.Marshal(struct {
		batch
		Exhausted bool `json:"exhausted"`
	}{batch(b), b.Exhausted()})
}

// SaleRecord - one sale against one batch. CostPerUnit is frozen from the
// batch at sale time. A sale made to a vendor carries VendorID.
type SaleRecord struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	InventoryRecordID uint            `gorm:"index;not null" json:"-"`
	Seq               int             `gorm:"not null" json:"-"`
	BatchID           string          `gorm:"size:36;index" json:"batchId"`
	VendorID          *uint           `gorm:"index" json:"vendorId,omitempty"`
	Category          string          `gorm:"size:100" json:"category"`
	SubCategory       string          `gorm:"size:100" json:"subCategory"`
	Product           string          `gorm:"size:150" json:"product"`
	UnitsSold         int             `gorm:"not null" json:"unitsSold"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPrice"`
	CostPerUnit       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"costPerUnit"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Profit            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"profit"`
	ClientName        string          `gorm:"size:150" json:"clientName"`
	ClientContact     string          `gorm:"size:50" json:"clientContact"`
	PaymentType       string          `gorm:"size:20;index" json:"paymentType"`
	Removed           bool            `gorm:"index;not null;default:false" json:"-"`
	SoldAt            time.Time       `gorm:"index" json:"soldAt"`
}

func (s *SaleRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// VendorRecord is the vendor-facing view of a sale.
type VendorRecord struct {
	ID            string          `json:"id"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory"`
	Product       string          `json:"product"`
	UnitsSold     int             `json:"unitsSold"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	CostPerUnit   decimal.Decimal `json:"costPerUnit"`
	Amount        decimal.Decimal `json:"amount"`
	Profit        decimal.Decimal `json:"profit"`
	PaymentStatus string          `json:"paymentStatus"`
	SoldAt        time.Time       `json:"soldAt"`
}

func (s SaleRecord) VendorRecord() VendorRecord {
	return VendorRecord{
		ID:            s.ID,
		Category:      s.Category,
		SubCategory:   s.SubCategory,
		Product:       s.Product,
		UnitsSold:     s.UnitsSold,
		UnitPrice:     s.UnitPrice,
		CostPerUnit:   s.CostPerUnit,
		Amount:        s.Amount,
		Profit:        s.Profit,
		PaymentStatus: s.PaymentType,
		SoldAt:        s.SoldAt,
	}
}

// CapitalLedger is the single cash balance row. ID is always 1.
type CapitalLedger struct {
	ID            uint            `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CapitalAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"capitalAmount"`
	Transactions  []Transaction   `gorm:"foreignKey:CapitalLedgerID" json:"transactions"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

const CapitalLedgerID = 1

// Transaction - one entry of the append-only capital log
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CapitalLedgerID uint            `gorm:"index;not null" json:"-"`
	Category        string          `gorm:"size:100" json:"category"`
	SubCategory     string          `gorm:"size:100" json:"subCategory"`
	TransactionType string          `gorm:"size:20;index" json:"transactionType"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ReferenceID     string          `gorm:"size:36" json:"referenceId,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
}

// Vendor - a credit customer. NameKey is the lower-cased name and carries
// the uniqueness constraint.
type Vendor struct {
	ID        uint         `gorm:"primaryKey"`
	Name      string       `gorm:"size:100;not null"`
	NameKey   string       `gorm:"uniqueIndex;size:100;not null"`
	Contact   string       `gorm:"size:50"`
	Address   string       `gorm:"size:255"`
	Records   []SaleRecord `gorm:"foreignKey:VendorID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func VendorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (v Vendor) MarshalJSON() ([]byte, error) {
	records := make([]VendorRecord, 0, len(v.Records))
	for _, r := range v.Records {
		records = append(records, r.VendorRecord())
	}
	return json.Marshal(struct {
		ID            uint           `json:"id"`
		Name          string         `json:"name"`
		Contact       string         `json:"contact"`
		Address       string         `json:"address"`
		VendorRecords []VendorRecord `json:"vendorRecords"`
		CreatedAt     time.Time      `json:"vendorAccountCreationDate"`
	}{v.ID, v.Name, v.Contact, v.Address, records, v.CreatedAt})
}
