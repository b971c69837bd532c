package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a supplier bill header with its lines. Header and lines are
// created together atomically; cancellation is a status transition only.
type Purchase struct {
	ID           int             `json:"id"`
	BillNumber   string          `json:"bill_number"`
	SupplierID   int             `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"` // joined from suppliers
	BillDate     string          `json:"bill_date"`     // YYYY-MM-DD
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       DocumentStatus  `json:"status"`
	Lines        []PurchaseLine  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

// PurchaseLine is one received line. The quantity credited to the batch
// ledger is Quantity + FreeQuantity.
type PurchaseLine struct {
	ID           int             `json:"id"`
	PurchaseID   int             `json:"purchase_id"`
	LineNumber   int             `json:"line_number"`
	ItemID       int             `json:"item_id"`
	ItemName     string          `json:"item_name"` // joined from items
	Unit         string          `json:"unit"`      // joined from items
	BatchNumber  string          `json:"batch_number"`
	Quantity     decimal.Decimal `json:"quantity"`
	FreeQuantity decimal.Decimal `json:"free_quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// ReceiptQuantity is the paid plus free quantity one line credits to a batch.
func (l PurchaseLine) ReceiptQuantity() decimal.Decimal {
	return l.Quantity.Add(l.FreeQuantity)
}

// PurchaseInput is the validated request to create a purchase document.
type PurchaseInput struct {
	BillNumber  string
	SupplierID  int
	BillDate    string // YYYY-MM-DD
	TotalAmount decimal.Decimal
	Lines       []PurchaseLineInput
}

type PurchaseLineInput struct {
	ItemID       int
	BatchNumber  string
	Quantity     decimal.Decimal
	FreeQuantity decimal.Decimal
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
}
