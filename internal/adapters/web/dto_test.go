package web

import (
	"testing"

	"partstock/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSaleRequest() createSaleRequest {
	return createSaleRequest{
		BillNumber:    "SB-1001",
		BillDate:      "2026-08-15",
		Subtotal:      "3000.00",
		TotalAmount:   "3000.00",
		PaymentMethod: "cash",
		Lines: []saleLineRequest{{
			ItemID:      1,
			BatchNumber: "B1",
			Quantity:    "2",
			UnitPrice:   "1500.00",
			LineTotal:   "3000.00",
		}},
	}
}

func TestCreateSaleRequest_Valid(t *testing.T) {
	req := validSaleRequest()
	require.NoError(t, validate.Struct(req))

	input, err := req.toInput()
	require.NoError(t, err)
	assert.Equal(t, "SB-1001", input.BillNumber)
	assert.Equal(t, core.PaymentCash, input.PaymentMethod)
	assert.True(t, input.TotalAmount.Equal(decimal.NewFromInt(3000)))
	require.Len(t, input.Lines, 1)
	assert.True(t, input.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, input.Lines[0].LabourCharge.IsZero())
}

func TestCreateSaleRequest_TagValidation(t *testing.T) {
	missing := validSaleRequest()
	missing.BillNumber = ""
	assert.Error(t, validate.Struct(missing))

	badDate := validSaleRequest()
	badDate.BillDate = "15/08/2026"
	assert.Error(t, validate.Struct(badDate))

	badMethod := validSaleRequest()
	badMethod.PaymentMethod = "crypto"
	assert.Error(t, validate.Struct(badMethod))

	noLines := validSaleRequest()
	noLines.Lines = nil
	assert.Error(t, validate.Struct(noLines))

	badDigits := validSaleRequest()
	digits := "12a4"
	badDigits.Payments = []paymentRequest{{Method: "card", Amount: "3000.00", CardLastDigits: &digits}}
	assert.Error(t, validate.Struct(badDigits))
}

func TestCreateSaleRequest_DecimalParsing(t *testing.T) {
	notANumber := validSaleRequest()
	notANumber.Lines[0].Quantity = "two"
	_, err := notANumber.toInput()
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	zeroQty := validSaleRequest()
	zeroQty.Lines[0].Quantity = "0"
	_, err = zeroQty.toInput()
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	negative := validSaleRequest()
	negative.Discount = "-10"
	_, err = negative.toInput()
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateSaleRequest_SplitsMustSumToTotal(t *testing.T) {
	req := validSaleRequest()
	req.PaymentMethod = "split"
	req.Payments = []paymentRequest{
		{Method: "cash", Amount: "1000.00"},
		{Method: "card", Amount: "1500.00"},
	}

	_, err := req.toInput()
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	req.Payments[1].Amount = "2000.00"
	input, err := req.toInput()
	require.NoError(t, err)
	require.Len(t, input.Payments, 2)
	assert.True(t, input.Payments[1].Amount.Equal(decimal.NewFromInt(2000)))
}

func TestCreatePurchaseRequest_FreeQuantityOptional(t *testing.T) {
	req := createPurchaseRequest{
		BillNumber:  "PB-1001",
		SupplierID:  1,
		BillDate:    "2026-08-01",
		TotalAmount: "12000.00",
		Lines: []purchaseLineRequest{{
			ItemID:      1,
			BatchNumber: "B1",
			Quantity:    "10",
			UnitPrice:   "1200.00",
			LineTotal:   "12000.00",
		}},
	}
	require.NoError(t, validate.Struct(req))

	input, err := req.toInput()
	require.NoError(t, err)
	require.Len(t, input.Lines, 1)
	assert.True(t, input.Lines[0].FreeQuantity.IsZero())

	req.Lines[0].FreeQuantity = "2"
	input, err = req.toInput()
	require.NoError(t, err)
	assert.True(t, input.Lines[0].FreeQuantity.Equal(decimal.NewFromInt(2)))
}

func TestAdjustmentRequest_ToInput(t *testing.T) {
	req := adjustmentRequest{
		ItemID:      1,
		BatchNumber: "B1",
		NewQuantity: "3",
		Reason:      "stocktake",
	}
	require.NoError(t, validate.Struct(req))

	input, err := req.toInput("nimal")
	require.NoError(t, err)
	assert.Equal(t, "nimal", input.Actor)
	assert.True(t, input.NewQuantity.Equal(decimal.NewFromInt(3)))

	req.NewQuantity = "-3"
	_, err = req.toInput("nimal")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
