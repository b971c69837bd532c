package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"partstock/internal/core"

	"github.com/shopspring/decimal"
)

func saleInput(billNumber string, itemID int, batchNumber string, qty int64) core.SaleInput {
	q := decimal.NewFromInt(qty)
	price := decimal.NewFromInt(1500)
	total := q.Mul(price)
	return core.SaleInput{
		BillNumber:    billNumber,
		BillDate:      "2026-08-15",
		Subtotal:      total,
		TotalAmount:   total,
		PaymentMethod: core.PaymentCash,
		Lines: []core.SaleLineInput{{
			ItemID:      itemID,
			BatchNumber: batchNumber,
			Quantity:    q,
			UnitPrice:   price,
			LineTotal:   total,
		}},
	}
}

func seedStock(t *testing.T, ctx context.Context, purchases core.PurchaseService, billNumber string, qty, free int64) {
	t.Helper()
	line := brakePadLine(qty, free)
	if _, err := purchases.Create(ctx, purchaseInput(billNumber, line)); err != nil {
		t.Fatalf("seed purchase %s failed: %v", billNumber, err)
	}
}

func TestSale_CreateDebitsLedger(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3001", 10, 2)

	sale, err := sales.Create(ctx, saleInput("SB-3001", 1, "B1", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sale.Status != core.StatusActive {
		t.Errorf("Expected status active, got %s", sale.Status)
	}
	if len(sale.Lines) != 1 || sale.Lines[0].ItemName != "Brake Pad Set" {
		t.Errorf("Expected 1 line with joined item name, got %+v", sale.Lines)
	}

	b, err := ledger.GetBatch(ctx, 1, "B1")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if !b.AvailableQuantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected available=7 after sale of 5, got %s", b.AvailableQuantity)
	}
	if !b.Quantity.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected quantity untouched at 12, got %s", b.Quantity)
	}
}

func TestSale_InsufficientStockAbortsDocument(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3002", 10, 2)
	if _, err := sales.Create(ctx, saleInput("SB-3002", 1, "B1", 5)); err != nil {
		t.Fatalf("First sale failed: %v", err)
	}

	// 7 remain; asking for 8 must fail and persist nothing.
	_, err := sales.Create(ctx, saleInput("SB-3003", 1, "B1", 8))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if !stockErr.Requested.Equal(decimal.NewFromInt(8)) || !stockErr.Available.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected requested=8 available=7, got requested=%s available=%s", stockErr.Requested, stockErr.Available)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales WHERE bill_number = 'SB-3003'").Scan(&count); err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected failed sale not persisted, got %d rows", count)
	}
	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected available unchanged at 7, got %s", got)
	}
}

func TestSale_PaymentSplitsPersisted(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3003", 10, 0)

	bank := "Commercial Bank"
	digits := "4412"
	input := saleInput("SB-3004", 1, "B1", 2)
	input.PaymentMethod = core.PaymentSplit
	input.Payments = []core.PaymentDetailInput{
		{Method: core.PaymentCash, Amount: decimal.NewFromInt(1000)},
		{Method: core.PaymentCard, Amount: decimal.NewFromInt(2000), BankName: &bank, CardLastDigits: &digits},
	}

	sale, err := sales.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(sale.Payments) != 2 {
		t.Fatalf("Expected 2 payment splits, got %d", len(sale.Payments))
	}
	var card *core.PaymentDetail
	for i := range sale.Payments {
		if sale.Payments[i].Method == core.PaymentCard {
			card = &sale.Payments[i]
		}
	}
	if card == nil {
		t.Fatal("Expected a card split")
	}
	if card.CardLastDigits == nil || *card.CardLastDigits != "4412" {
		t.Errorf("Expected card last digits 4412, got %v", card.CardLastDigits)
	}
	if card.BankName == nil || *card.BankName != "Commercial Bank" {
		t.Errorf("Expected bank name persisted, got %v", card.BankName)
	}
}

func TestSale_CancelRestoresLedger(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3004", 10, 2)
	sale, err := sales.Create(ctx, saleInput("SB-3005", 1, "B1", 5))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cancelled, err := sales.Cancel(ctx, sale.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != core.StatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("Expected cancelled status with timestamp, got %s %v", cancelled.Status, cancelled.CancelledAt)
	}

	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected available restored to 12, got %s", got)
	}

	_, err = sales.Cancel(ctx, sale.ID)
	if !errors.Is(err, core.ErrAlreadyCancelled) {
		t.Errorf("Expected ErrAlreadyCancelled on second cancel, got %v", err)
	}
	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected available still 12 after rejected double cancel, got %s", got)
	}
}

func TestSale_ConcurrentDebitsExactlyOneSucceeds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3005", 10, 0)

	// Two sales of 7 against 10 available: the guarded update must let
	// exactly one through regardless of interleaving.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bill := []string{"SB-3006", "SB-3007"}[i]
			_, errs[i] = sales.Create(ctx, saleInput(bill, 1, "B1", 7))
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, core.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("Expected exactly one success and one stock failure, got %d/%d", succeeded, insufficient)
	}
	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected available=3 after exactly one debit of 7, got %s", got)
	}
}

func TestSale_LedgerConservation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-3006", 10, 2)
	seedStock(t, ctx, purchases, "PB-3007", 5, 0)

	if _, err := sales.Create(ctx, saleInput("SB-3008", 1, "B1", 4)); err != nil {
		t.Fatalf("First sale failed: %v", err)
	}
	second, err := sales.Create(ctx, saleInput("SB-3009", 1, "B1", 3))
	if err != nil {
		t.Fatalf("Second sale failed: %v", err)
	}
	if _, err := sales.Cancel(ctx, second.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// 12 + 5 received, 4 + 3 sold, 3 restored: 13 must remain.
	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(13)) {
		t.Errorf("Expected available=13 after credits, debits and restore, got %s", got)
	}
}

func TestSale_GetNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	sales := core.NewSaleService(pool, core.NewBatchLedger(pool))

	if _, err := sales.Get(context.Background(), 9999); !errors.Is(err, core.ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}
