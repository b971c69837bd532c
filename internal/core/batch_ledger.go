package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BatchLedger owns the batches table: per-(item, batch) on-hand and available
// quantities. It is the single shared mutable resource of the engine. All
// mutators are TX-scoped — they run inside a caller-provided transaction so
// that a document's header, lines, and ledger effects commit as one unit.
//
// Debit and purchase-reversal use a guarded conditional update
// (… WHERE available_quantity >= qty) and treat "zero rows affected" as the
// failure signal. That single statement is the concurrency control: two
// concurrent debits against the same batch serialize on the row without an
// explicit lock, and at most the available quantity ever succeeds.
type BatchLedger struct {
	pool *pgxpool.Pool
}

func NewBatchLedger(pool *pgxpool.Pool) *BatchLedger {
	return &BatchLedger{pool: pool}
}

// CreditTx adds qty to both quantity and available_quantity, creating the
// batch row on first receipt. Crediting is unconditional.
func (l *BatchLedger) CreditTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string, qty decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO batches (item_id, batch_number, quantity, available_quantity)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (item_id, batch_number) DO UPDATE
		SET quantity           = batches.quantity + EXCLUDED.quantity,
		    available_quantity = batches.available_quantity + EXCLUDED.available_quantity
	`, itemID, batchNumber, qty)
	if err != nil {
		return fmt.Errorf("credit batch %q of item %d: %w", batchNumber, itemID, err)
	}
	return nil
}

// DebitTx removes qty from available_quantity, but only if the batch still
// holds at least qty. A non-applied update is surfaced as
// InsufficientStockError with the current availability, not a generic error.
func (l *BatchLedger) DebitTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string, qty decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE batches
		SET available_quantity = available_quantity - $3
		WHERE item_id = $1 AND batch_number = $2 AND available_quantity >= $3
	`, itemID, batchNumber, qty)
	if err != nil {
		return fmt.Errorf("debit batch %q of item %d: %w", batchNumber, itemID, err)
	}
	if tag.RowsAffected() == 0 {
		available, err := l.availableTx(ctx, tx, itemID, batchNumber)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ItemID: itemID, BatchNumber: batchNumber, Requested: qty, Available: available}
	}
	return nil
}

// RestoreFromCancelledPurchase removes the credited receipt quantity when a
// purchase is cancelled. The same availability guard as DebitTx protects
// against double-cancel and against batches already partly consumed by
// subsequent sales; a non-applied update is a ReversalConflictError.
func (l *BatchLedger) RestoreFromCancelledPurchaseTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string, qty decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE batches
		SET available_quantity = available_quantity - $3
		WHERE item_id = $1 AND batch_number = $2 AND available_quantity >= $3
	`, itemID, batchNumber, qty)
	if err != nil {
		return fmt.Errorf("reverse purchase credit on batch %q of item %d: %w", batchNumber, itemID, err)
	}
	if tag.RowsAffected() == 0 {
		available, err := l.availableTx(ctx, tx, itemID, batchNumber)
		if err != nil {
			return err
		}
		return &ReversalConflictError{ItemID: itemID, BatchNumber: batchNumber, Reversing: qty, Available: available}
	}
	return nil
}

// RestoreFromCancelledSaleTx credits qty back to available_quantity when a
// sale is cancelled. The credit-back is unconditional — there is no upper
// bound against quantity — so the caller must hold the document-status guard
// that prevents double cancellation.
func (l *BatchLedger) RestoreFromCancelledSaleTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string, qty decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE batches
		SET available_quantity = available_quantity + $3
		WHERE item_id = $1 AND batch_number = $2
	`, itemID, batchNumber, qty)
	if err != nil {
		return fmt.Errorf("restore sale debit on batch %q of item %d: %w", batchNumber, itemID, err)
	}
	if tag.RowsAffected() == 0 {
		// Batch rows are never deleted, so this only happens if the batch was
		// renumbered outside the engine since the sale was created.
		return &BatchNotFoundError{ItemID: itemID, BatchNumber: batchNumber}
	}
	return nil
}

// SetAvailableTx overwrites available_quantity. Used only by the adjustment
// processor, which records the audit trail for the change.
func (l *BatchLedger) SetAvailableTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string, newQty decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE batches
		SET available_quantity = $3
		WHERE item_id = $1 AND batch_number = $2
	`, itemID, batchNumber, newQty)
	if err != nil {
		return fmt.Errorf("set available quantity on batch %q of item %d: %w", batchNumber, itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return &BatchNotFoundError{ItemID: itemID, BatchNumber: batchNumber}
	}
	return nil
}

// GetBatch returns one ledger row.
func (l *BatchLedger) GetBatch(ctx context.Context, itemID int, batchNumber string) (*Batch, error) {
	var b Batch
	err := l.pool.QueryRow(ctx, `
		SELECT id, item_id, batch_number, quantity, available_quantity, created_at
		FROM batches
		WHERE item_id = $1 AND batch_number = $2
	`, itemID, batchNumber).Scan(&b.ID, &b.ItemID, &b.BatchNumber, &b.Quantity, &b.AvailableQuantity, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &BatchNotFoundError{ItemID: itemID, BatchNumber: batchNumber}
		}
		return nil, fmt.Errorf("fetch batch %q of item %d: %w", batchNumber, itemID, err)
	}
	return &b, nil
}

// ListBatches returns an item's batches that still have stock, oldest receipt
// first. The ordering supports FIFO batch picking in the caller — the ledger
// itself never chooses a batch.
func (l *BatchLedger) ListBatches(ctx context.Context, itemID int) ([]Batch, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, item_id, batch_number, quantity, available_quantity, created_at
		FROM batches
		WHERE item_id = $1 AND available_quantity > 0
		ORDER BY created_at, id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list batches for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BatchNumber, &b.Quantity, &b.AvailableQuantity, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// availableTx reads the current availability inside the same transaction,
// so the error carries the value the guard actually saw.
func (l *BatchLedger) availableTx(ctx context.Context, tx pgx.Tx, itemID int, batchNumber string) (decimal.Decimal, error) {
	var available decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT available_quantity FROM batches WHERE item_id = $1 AND batch_number = $2",
		itemID, batchNumber,
	).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch availability of batch %q of item %d: %w", batchNumber, itemID, err)
	}
	return available, nil
}
