package web

import (
	"fmt"

	"partstock/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate holds the request validators. Struct tags cover presence, enums,
// and date formats; quantity/amount semantics are checked during conversion
// because the values arrive as decimal strings.
var validate = validator.New()

type createPurchaseRequest struct {
	BillNumber  string                `json:"bill_number" validate:"required,max=64"`
	SupplierID  int                   `json:"supplier_id" validate:"required,gt=0"`
	BillDate    string                `json:"bill_date" validate:"required,datetime=2006-01-02"`
	TotalAmount string                `json:"total_amount" validate:"required"`
	Lines       []purchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type purchaseLineRequest struct {
	ItemID       int    `json:"item_id" validate:"required,gt=0"`
	BatchNumber  string `json:"batch_number" validate:"required,max=64"`
	Quantity     string `json:"quantity" validate:"required"`
	FreeQuantity string `json:"free_quantity"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	LineTotal    string `json:"line_total" validate:"required"`
}

func (req createPurchaseRequest) toInput() (core.PurchaseInput, error) {
	input := core.PurchaseInput{
		BillNumber: req.BillNumber,
		SupplierID: req.SupplierID,
		BillDate:   req.BillDate,
	}

	var err error
	if input.TotalAmount, err = parseAmount("total_amount", req.TotalAmount); err != nil {
		return core.PurchaseInput{}, err
	}

	for i, l := range req.Lines {
		line := core.PurchaseLineInput{
			ItemID:      l.ItemID,
			BatchNumber: l.BatchNumber,
		}
		if line.Quantity, err = parsePositive(fmt.Sprintf("lines[%d].quantity", i), l.Quantity); err != nil {
			return core.PurchaseInput{}, err
		}
		if line.FreeQuantity, err = parseOptionalAmount(fmt.Sprintf("lines[%d].free_quantity", i), l.FreeQuantity); err != nil {
			return core.PurchaseInput{}, err
		}
		if line.UnitPrice, err = parseAmount(fmt.Sprintf("lines[%d].unit_price", i), l.UnitPrice); err != nil {
			return core.PurchaseInput{}, err
		}
		if line.LineTotal, err = parseAmount(fmt.Sprintf("lines[%d].line_total", i), l.LineTotal); err != nil {
			return core.PurchaseInput{}, err
		}
		input.Lines = append(input.Lines, line)
	}
	return input, nil
}

type createSaleRequest struct {
	BillNumber    string           `json:"bill_number" validate:"required,max=64"`
	BillDate      string           `json:"bill_date" validate:"required,datetime=2006-01-02"`
	Subtotal      string           `json:"subtotal" validate:"required"`
	LabourCharge  string           `json:"labour_charge"`
	Discount      string           `json:"discount"`
	TotalAmount   string           `json:"total_amount" validate:"required"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=cash card cheque bank_transfer split"`
	Lines         []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payments      []paymentRequest  `json:"payments" validate:"dive"`
}

type saleLineRequest struct {
	ItemID       int    `json:"item_id" validate:"required,gt=0"`
	BatchNumber  string `json:"batch_number" validate:"required,max=64"`
	Quantity     string `json:"quantity" validate:"required"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	LabourCharge string `json:"labour_charge"`
	LineTotal    string `json:"line_total" validate:"required"`
}

type paymentRequest struct {
	Method          string  `json:"method" validate:"required,oneof=cash card cheque bank_transfer"`
	Amount          string  `json:"amount" validate:"required"`
	BankName        *string `json:"bank_name,omitempty"`
	CardLastDigits  *string `json:"card_last_digits,omitempty" validate:"omitempty,len=4,numeric"`
	ChequeName      *string `json:"cheque_name,omitempty"`
	ChequeDate      *string `json:"cheque_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReferenceNumber *string `json:"reference_number,omitempty"`
}

func (req createSaleRequest) toInput() (core.SaleInput, error) {
	input := core.SaleInput{
		BillNumber:    req.BillNumber,
		BillDate:      req.BillDate,
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
	}

	var err error
	if input.Subtotal, err = parseAmount("subtotal", req.Subtotal); err != nil {
		return core.SaleInput{}, err
	}
	if input.LabourCharge, err = parseOptionalAmount("labour_charge", req.LabourCharge); err != nil {
		return core.SaleInput{}, err
	}
	if input.Discount, err = parseOptionalAmount("discount", req.Discount); err != nil {
		return core.SaleInput{}, err
	}
	if input.TotalAmount, err = parseAmount("total_amount", req.TotalAmount); err != nil {
		return core.SaleInput{}, err
	}

	for i, l := range req.Lines {
		line := core.SaleLineInput{
			ItemID:      l.ItemID,
			BatchNumber: l.BatchNumber,
		}
		if line.Quantity, err = parsePositive(fmt.Sprintf("lines[%d].quantity", i), l.Quantity); err != nil {
			return core.SaleInput{}, err
		}
		if line.UnitPrice, err = parseAmount(fmt.Sprintf("lines[%d].unit_price", i), l.UnitPrice); err != nil {
			return core.SaleInput{}, err
		}
		if line.LabourCharge, err = parseOptionalAmount(fmt.Sprintf("lines[%d].labour_charge", i), l.LabourCharge); err != nil {
			return core.SaleInput{}, err
		}
		if line.LineTotal, err = parseAmount(fmt.Sprintf("lines[%d].line_total", i), l.LineTotal); err != nil {
			return core.SaleInput{}, err
		}
		input.Lines = append(input.Lines, line)
	}

	var splitsTotal decimal.Decimal
	for i, p := range req.Payments {
		split := core.PaymentDetailInput{
			Method:          core.PaymentMethod(p.Method),
			BankName:        p.BankName,
			CardLastDigits:  p.CardLastDigits,
			ChequeName:      p.ChequeName,
			ChequeDate:      p.ChequeDate,
			ReferenceNumber: p.ReferenceNumber,
		}
		if split.Amount, err = parsePositive(fmt.Sprintf("payments[%d].amount", i), p.Amount); err != nil {
			return core.SaleInput{}, err
		}
		splitsTotal = splitsTotal.Add(split.Amount)
		input.Payments = append(input.Payments, split)
	}

	// The engine records splits as given; the sum check lives here at the
	// boundary so a mismatched breakdown never opens a unit of work.
	if len(input.Payments) > 0 && !splitsTotal.Equal(input.TotalAmount) {
		return core.SaleInput{}, fmt.Errorf("%w: payment splits sum to %s but total_amount is %s",
			core.ErrInvalidInput, splitsTotal, input.TotalAmount)
	}

	return input, nil
}

type adjustmentRequest struct {
	ItemID      int    `json:"item_id" validate:"required,gt=0"`
	BatchNumber string `json:"batch_number" validate:"required,max=64"`
	NewQuantity string `json:"new_quantity" validate:"required"`
	Reason      string `json:"reason" validate:"required,max=255"`
}

func (req adjustmentRequest) toInput(actor string) (core.AdjustmentInput, error) {
	newQty, err := parseAmount("new_quantity", req.NewQuantity)
	if err != nil {
		return core.AdjustmentInput{}, err
	}
	return core.AdjustmentInput{
		ItemID:      req.ItemID,
		BatchNumber: req.BatchNumber,
		NewQuantity: newQty,
		Reason:      req.Reason,
		Actor:       actor,
	}, nil
}

// parseAmount parses a required non-negative decimal string.
func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a valid decimal: %q", core.ErrInvalidInput, field, value)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative: %s", core.ErrInvalidInput, field, d)
	}
	return d, nil
}

// parseOptionalAmount treats the empty string as zero.
func parseOptionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, value)
}

// parsePositive parses a decimal string that must be strictly positive.
func parsePositive(field, value string) (decimal.Decimal, error) {
	d, err := parseAmount(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", core.ErrInvalidInput, field)
	}
	return d, nil
}
