package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	// PaymentSplit on the header means the actual breakdown lives in the
	// payment split rows.
	PaymentSplit PaymentMethod = "split"
)

// Sale is a customer bill header with its lines and payment splits, all
// created atomically. Cancellation is a status transition only.
type Sale struct {
	ID            int              `json:"id"`
	BillNumber    string           `json:"bill_number"`
	BillDate      string           `json:"bill_date"` // YYYY-MM-DD
	Subtotal      decimal.Decimal  `json:"subtotal"`
	LabourCharge  decimal.Decimal  `json:"labour_charge"`
	Discount      decimal.Decimal  `json:"discount"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Status        DocumentStatus   `json:"status"`
	Lines         []SaleLine       `json:"lines"`
	Payments      []PaymentDetail  `json:"payments"`
	CreatedAt     time.Time        `json:"created_at"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
}

// SaleLine is one issued line. The request names the batch explicitly; the
// engine never substitutes or splits across batches.
type SaleLine struct {
	ID           int             `json:"id"`
	SaleID       int             `json:"sale_id"`
	LineNumber   int             `json:"line_number"`
	ItemID       int             `json:"item_id"`
	ItemName     string          `json:"item_name"` // joined from items
	Unit         string          `json:"unit"`      // joined from items
	BatchNumber  string          `json:"batch_number"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LabourCharge decimal.Decimal `json:"labour_charge"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// PaymentDetail is one payment split row. Metadata fields apply per method:
// bank name for transfers, card last digits for cards, cheque name/date for
// cheques, reference number where the instrument carries one.
type PaymentDetail struct {
	ID              int             `json:"id"`
	SaleID          int             `json:"sale_id"`
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	BankName        *string         `json:"bank_name,omitempty"`
	CardLastDigits  *string         `json:"card_last_digits,omitempty"`
	ChequeName      *string         `json:"cheque_name,omitempty"`
	ChequeDate      *string         `json:"cheque_date,omitempty"` // YYYY-MM-DD
	ReferenceNumber *string         `json:"reference_number,omitempty"`
}

// SaleInput is the validated request to create a sale document.
// The engine does not check that payments sum to TotalAmount — that property
// is enforced at the boundary before the unit of work opens.
type SaleInput struct {
	BillNumber    string
	BillDate      string // YYYY-MM-DD
	Subtotal      decimal.Decimal
	LabourCharge  decimal.Decimal
	Discount      decimal.Decimal
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
	Lines         []SaleLineInput
	Payments      []PaymentDetailInput
}

type SaleLineInput struct {
	ItemID       int
	BatchNumber  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	LabourCharge decimal.Decimal
	LineTotal    decimal.Decimal
}

type PaymentDetailInput struct {
	Method          PaymentMethod
	Amount          decimal.Decimal
	BankName        *string
	CardLastDigits  *string
	ChequeName      *string
	ChequeDate      *string
	ReferenceNumber *string
}
