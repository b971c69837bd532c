package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockAdjustment is one immutable audit row recording a manual overwrite of
// a batch's available quantity.
type StockAdjustment struct {
	ID          int             `json:"id"`
	ItemID      int             `json:"item_id"`
	BatchNumber string          `json:"batch_number"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      string          `json:"reason"`
	Actor       string          `json:"actor"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AdjustmentInput is a validated manual stock correction request. Actor is
// the authenticated identity supplied by the caller.
type AdjustmentInput struct {
	ItemID      int
	BatchNumber string
	NewQuantity decimal.Decimal
	Reason      string
	Actor       string
}

// AdjustmentService overwrites a batch's available quantity with an audit
// trail. It is the only operation permitted to move available_quantity
// independent of quantity, and its audit record is the sole evidence for
// such changes.
type AdjustmentService interface {
	Adjust(ctx context.Context, input AdjustmentInput) (*StockAdjustment, error)
	ListAdjustments(ctx context.Context, itemID int, page Page) ([]StockAdjustment, error)
}

type adjustmentService struct {
	pool   *pgxpool.Pool
	ledger *BatchLedger
}

func NewAdjustmentService(pool *pgxpool.Pool, ledger *BatchLedger) AdjustmentService {
	return &adjustmentService{pool: pool, ledger: ledger}
}

func (s *adjustmentService) Adjust(ctx context.Context, input AdjustmentInput) (*StockAdjustment, error) {
	if input.NewQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: adjusted quantity cannot be negative, got %s", ErrInvalidInput, input.NewQuantity)
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: adjustment reason is required", ErrInvalidInput)
	}
	if input.Actor == "" {
		return nil, fmt.Errorf("%w: adjustment actor is required", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the batch row so the old quantity recorded in the audit trail is
	// exactly the one being overwritten.
	var oldQty decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT available_quantity FROM batches
		WHERE item_id = $1 AND batch_number = $2
		FOR UPDATE
	`, input.ItemID, input.BatchNumber).Scan(&oldQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &BatchNotFoundError{ItemID: input.ItemID, BatchNumber: input.BatchNumber}
		}
		return nil, fmt.Errorf("fetch batch %q of item %d: %w", input.BatchNumber, input.ItemID, err)
	}

	if err := s.ledger.SetAvailableTx(ctx, tx, input.ItemID, input.BatchNumber, input.NewQuantity); err != nil {
		return nil, err
	}

	delta := input.NewQuantity.Sub(oldQty)
	adj := &StockAdjustment{
		ItemID:      input.ItemID,
		BatchNumber: input.BatchNumber,
		OldQuantity: oldQty,
		NewQuantity: input.NewQuantity,
		Delta:       delta,
		Reason:      input.Reason,
		Actor:       input.Actor,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_adjustments (item_id, batch_number, old_quantity, new_quantity, delta, reason, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, adj.ItemID, adj.BatchNumber, adj.OldQuantity, adj.NewQuantity, adj.Delta, adj.Reason, adj.Actor).Scan(&adj.ID, &adj.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert stock adjustment record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit stock adjustment: %w", err)
	}
	return adj, nil
}

func (s *adjustmentService) ListAdjustments(ctx context.Context, itemID int, page Page) ([]StockAdjustment, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, item_id, batch_number, old_quantity, new_quantity, delta, reason, actor, created_at
		FROM stock_adjustments
		WHERE item_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, itemID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list adjustments for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var adjustments []StockAdjustment
	for rows.Next() {
		var a StockAdjustment
		if err := rows.Scan(
			&a.ID, &a.ItemID, &a.BatchNumber, &a.OldQuantity, &a.NewQuantity,
			&a.Delta, &a.Reason, &a.Actor, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, nil
}
