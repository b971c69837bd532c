package core_test

import (
	"context"
	"errors"
	"testing"

	"partstock/internal/core"

	"github.com/shopspring/decimal"
)

func TestAdjustment_OverwriteWithAuditTrail(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	sales := core.NewSaleService(pool, ledger)
	adjustments := core.NewAdjustmentService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-4001", 10, 2)
	if _, err := sales.Create(ctx, saleInput("SB-4001", 1, "B1", 5)); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	// Stocktake finds 3 where the ledger says 7.
	adj, err := adjustments.Adjust(ctx, core.AdjustmentInput{
		ItemID:      1,
		BatchNumber: "B1",
		NewQuantity: decimal.NewFromInt(3),
		Reason:      "water damage found during stocktake",
		Actor:       "nimal",
	})
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	if !adj.OldQuantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected old_quantity=7, got %s", adj.OldQuantity)
	}
	if !adj.Delta.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("Expected delta=-4, got %s", adj.Delta)
	}
	if adj.ID == 0 || adj.CreatedAt.IsZero() {
		t.Errorf("Expected persisted audit row with id and timestamp, got id=%d", adj.ID)
	}

	if got := mustAvailable(t, ctx, ledger, 1, "B1"); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected available=3 after adjustment, got %s", got)
	}
}

func TestAdjustment_BatchNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	adjustments := core.NewAdjustmentService(pool, core.NewBatchLedger(pool))

	_, err := adjustments.Adjust(context.Background(), core.AdjustmentInput{
		ItemID:      2,
		BatchNumber: "GHOST",
		NewQuantity: decimal.NewFromInt(5),
		Reason:      "stocktake",
		Actor:       "nimal",
	})
	var notFound *core.BatchNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected BatchNotFoundError, got %v", err)
	}
	if notFound.ItemID != 2 || notFound.BatchNumber != "GHOST" {
		t.Errorf("Expected error to identify item 2 batch GHOST, got %+v", notFound)
	}
}

func TestAdjustment_InputValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	adjustments := core.NewAdjustmentService(pool, core.NewBatchLedger(pool))
	ctx := context.Background()

	cases := []struct {
		name  string
		input core.AdjustmentInput
	}{
		{"negative quantity", core.AdjustmentInput{ItemID: 1, BatchNumber: "B1", NewQuantity: decimal.NewFromInt(-1), Reason: "r", Actor: "a"}},
		{"missing reason", core.AdjustmentInput{ItemID: 1, BatchNumber: "B1", NewQuantity: decimal.NewFromInt(1), Actor: "a"}},
		{"missing actor", core.AdjustmentInput{ItemID: 1, BatchNumber: "B1", NewQuantity: decimal.NewFromInt(1), Reason: "r"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := adjustments.Adjust(ctx, tc.input); !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAdjustment_ListNewestFirst(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := core.NewBatchLedger(pool)
	purchases := core.NewPurchaseService(pool, ledger)
	adjustments := core.NewAdjustmentService(pool, ledger)
	ctx := context.Background()

	seedStock(t, ctx, purchases, "PB-4002", 10, 0)
	for _, qty := range []int64{8, 6} {
		_, err := adjustments.Adjust(ctx, core.AdjustmentInput{
			ItemID:      1,
			BatchNumber: "B1",
			NewQuantity: decimal.NewFromInt(qty),
			Reason:      "stocktake",
			Actor:       "nimal",
		})
		if err != nil {
			t.Fatalf("Adjust to %d failed: %v", qty, err)
		}
	}

	list, err := adjustments.ListAdjustments(ctx, 1, core.DefaultPage())
	if err != nil {
		t.Fatalf("ListAdjustments failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 adjustments, got %d", len(list))
	}
	if !list[0].NewQuantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Expected newest adjustment first, got new_quantity=%s", list[0].NewQuantity)
	}
	if !list[1].Delta.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("Expected first adjustment delta=-2, got %s", list[1].Delta)
	}
}
