package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseService processes purchase receipts: each document credits the
// batch ledger per line inside one unit of work, and cancellation reverses
// those credits under the ledger's availability guard.
type PurchaseService interface {
	Create(ctx context.Context, input PurchaseInput) (*Purchase, error)
	// Cancel reverses every line's credited receipt quantity and marks the
	// document cancelled. Fails with ErrReversalConflict if intervening sales
	// consumed more of any batch than is being reversed, and with
	// ErrAlreadyCancelled on a repeated cancel.
	Cancel(ctx context.Context, purchaseID int) (*Purchase, error)
	Get(ctx context.Context, purchaseID int) (*Purchase, error)
	List(ctx context.Context, page Page) ([]Purchase, error)
}

type purchaseService struct {
	pool   *pgxpool.Pool
	ledger *BatchLedger
}

func NewPurchaseService(pool *pgxpool.Pool, ledger *BatchLedger) PurchaseService {
	return &purchaseService{pool: pool, ledger: ledger}
}

func (s *purchaseService) Create(ctx context.Context, input PurchaseInput) (*Purchase, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: purchase must have at least one line", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var purchaseID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (bill_number, supplier_id, bill_date, total_amount, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id
	`, input.BillNumber, input.SupplierID, input.BillDate, input.TotalAmount).Scan(&purchaseID)
	if err != nil {
		return nil, fmt.Errorf("insert purchase header: %w", err)
	}

	for i, line := range input.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_lines (purchase_id, line_number, item_id, batch_number, quantity, free_quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, purchaseID, i+1, line.ItemID, line.BatchNumber, line.Quantity, line.FreeQuantity, line.UnitPrice, line.LineTotal); err != nil {
			return nil, fmt.Errorf("insert purchase line %d: %w", i+1, err)
		}

		receiptQty := line.Quantity.Add(line.FreeQuantity)
		if err := s.ledger.CreditTx(ctx, tx, line.ItemID, line.BatchNumber, receiptQty); err != nil {
			return nil, fmt.Errorf("purchase line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	// Read-after-write outside the transaction: the document is immutable
	// post-commit except for status.
	return s.Get(ctx, purchaseID)
}

func (s *purchaseService) Cancel(ctx context.Context, purchaseID int) (*Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the header so a concurrent cancel of the same document serializes
	// here and hits the status check.
	var status DocumentStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM purchases WHERE id = $1 FOR UPDATE",
		purchaseID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", purchaseID, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}
	if status == StatusCancelled {
		return nil, fmt.Errorf("purchase %d: %w", purchaseID, ErrAlreadyCancelled)
	}

	lines, err := fetchPurchaseLines(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}

	// Any guard failure aborts the whole cancellation — never partial.
	for _, line := range lines {
		if err := s.ledger.RestoreFromCancelledPurchaseTx(ctx, tx, line.ItemID, line.BatchNumber, line.ReceiptQuantity()); err != nil {
			return nil, fmt.Errorf("cancel purchase %d line %d: %w", purchaseID, line.LineNumber, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchases SET status = 'cancelled', cancelled_at = NOW() WHERE id = $1",
		purchaseID,
	); err != nil {
		return nil, fmt.Errorf("mark purchase %d cancelled: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase cancellation: %w", err)
	}

	return s.Get(ctx, purchaseID)
}

func (s *purchaseService) Get(ctx context.Context, purchaseID int) (*Purchase, error) {
	var p Purchase
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.bill_number, p.supplier_id, s.name, p.bill_date::text,
		       p.total_amount, p.status, p.created_at, p.cancelled_at
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1
	`, purchaseID).Scan(
		&p.ID, &p.BillNumber, &p.SupplierID, &p.SupplierName, &p.BillDate,
		&p.TotalAmount, &p.Status, &p.CreatedAt, &p.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", purchaseID, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}

	lines, err := fetchPurchaseLines(ctx, s.pool, purchaseID)
	if err != nil {
		return nil, err
	}
	p.Lines = lines
	return &p, nil
}

func (s *purchaseService) List(ctx context.Context, page Page) ([]Purchase, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.bill_number, p.supplier_id, s.name, p.bill_date::text,
		       p.total_amount, p.status, p.created_at, p.cancelled_at
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		ORDER BY p.id DESC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(
			&p.ID, &p.BillNumber, &p.SupplierID, &p.SupplierName, &p.BillDate,
			&p.TotalAmount, &p.Status, &p.CreatedAt, &p.CancelledAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so line fetches can
// run standalone or inside a cancellation's unit of work.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchPurchaseLines(ctx context.Context, q querier, purchaseID int) ([]PurchaseLine, error) {
	rows, err := q.Query(ctx, `
		SELECT pl.id, pl.purchase_id, pl.line_number,
		       pl.item_id, i.name, i.unit, pl.batch_number,
		       pl.quantity, pl.free_quantity, pl.unit_price, pl.line_total
		FROM purchase_lines pl
		JOIN items i ON i.id = pl.item_id
		WHERE pl.purchase_id = $1
		ORDER BY pl.line_number
	`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("fetch purchase lines for %d: %w", purchaseID, err)
	}
	defer rows.Close()

	var lines []PurchaseLine
	for rows.Next() {
		var l PurchaseLine
		if err := rows.Scan(
			&l.ID, &l.PurchaseID, &l.LineNumber,
			&l.ItemID, &l.ItemName, &l.Unit, &l.BatchNumber,
			&l.Quantity, &l.FreeQuantity, &l.UnitPrice, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
