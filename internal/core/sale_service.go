package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaleService processes sale issues: each document debits the batch ledger
// per line inside one unit of work, recording payment splits in the same
// unit. A failed debit guard aborts the whole document.
type SaleService interface {
	Create(ctx context.Context, input SaleInput) (*Sale, error)
	// Cancel credits every line's quantity back to its batch and marks the
	// document cancelled. The credit-back is unconditional, so the status
	// guard here is the only protection against double cancellation —
	// a repeated cancel fails with ErrAlreadyCancelled.
	Cancel(ctx context.Context, saleID int) (*Sale, error)
	Get(ctx context.Context, saleID int) (*Sale, error)
	List(ctx context.Context, page Page) ([]Sale, error)
}

type saleService struct {
	pool   *pgxpool.Pool
	ledger *BatchLedger
}

func NewSaleService(pool *pgxpool.Pool, ledger *BatchLedger) SaleService {
	return &saleService{pool: pool, ledger: ledger}
}

func (s *saleService) Create(ctx context.Context, input SaleInput) (*Sale, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: sale must have at least one line", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (bill_number, bill_date, subtotal, labour_charge, discount, total_amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING id
	`, input.BillNumber, input.BillDate, input.Subtotal, input.LabourCharge,
		input.Discount, input.TotalAmount, input.PaymentMethod).Scan(&saleID)
	if err != nil {
		return nil, fmt.Errorf("insert sale header: %w", err)
	}

	for i, line := range input.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, line_number, item_id, batch_number, quantity, unit_price, labour_charge, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, saleID, i+1, line.ItemID, line.BatchNumber, line.Quantity, line.UnitPrice, line.LabourCharge, line.LineTotal); err != nil {
			return nil, fmt.Errorf("insert sale line %d: %w", i+1, err)
		}

		// The caller chose the batch; a failed guard rolls back the whole
		// document rather than substituting another batch.
		if err := s.ledger.DebitTx(ctx, tx, line.ItemID, line.BatchNumber, line.Quantity); err != nil {
			return nil, fmt.Errorf("sale line %d: %w", i+1, err)
		}
	}

	for i, p := range input.Payments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_payments (sale_id, method, amount, bank_name, card_last_digits, cheque_name, cheque_date, reference_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, saleID, p.Method, p.Amount, p.BankName, p.CardLastDigits, p.ChequeName, p.ChequeDate, p.ReferenceNumber); err != nil {
			return nil, fmt.Errorf("insert payment split %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	return s.Get(ctx, saleID)
}

func (s *saleService) Cancel(ctx context.Context, saleID int) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status DocumentStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM sales WHERE id = $1 FOR UPDATE",
		saleID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", saleID, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("fetch sale %d: %w", saleID, err)
	}
	if status == StatusCancelled {
		return nil, fmt.Errorf("sale %d: %w", saleID, ErrAlreadyCancelled)
	}

	lines, err := fetchSaleLines(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if err := s.ledger.RestoreFromCancelledSaleTx(ctx, tx, line.ItemID, line.BatchNumber, line.Quantity); err != nil {
			return nil, fmt.Errorf("cancel sale %d line %d: %w", saleID, line.LineNumber, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE sales SET status = 'cancelled', cancelled_at = NOW() WHERE id = $1",
		saleID,
	); err != nil {
		return nil, fmt.Errorf("mark sale %d cancelled: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale cancellation: %w", err)
	}

	return s.Get(ctx, saleID)
}

func (s *saleService) Get(ctx context.Context, saleID int) (*Sale, error) {
	var sl Sale
	err := s.pool.QueryRow(ctx, `
		SELECT id, bill_number, bill_date::text, subtotal, labour_charge, discount,
		       total_amount, payment_method, status, created_at, cancelled_at
		FROM sales
		WHERE id = $1
	`, saleID).Scan(
		&sl.ID, &sl.BillNumber, &sl.BillDate, &sl.Subtotal, &sl.LabourCharge, &sl.Discount,
		&sl.TotalAmount, &sl.PaymentMethod, &sl.Status, &sl.CreatedAt, &sl.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", saleID, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("fetch sale %d: %w", saleID, err)
	}

	lines, err := fetchSaleLines(ctx, s.pool, saleID)
	if err != nil {
		return nil, err
	}
	sl.Lines = lines

	payments, err := s.fetchPayments(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sl.Payments = payments
	return &sl, nil
}

func (s *saleService) List(ctx context.Context, page Page) ([]Sale, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, bill_number, bill_date::text, subtotal, labour_charge, discount,
		       total_amount, payment_method, status, created_at, cancelled_at
		FROM sales
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sl Sale
		if err := rows.Scan(
			&sl.ID, &sl.BillNumber, &sl.BillDate, &sl.Subtotal, &sl.LabourCharge, &sl.Discount,
			&sl.TotalAmount, &sl.PaymentMethod, &sl.Status, &sl.CreatedAt, &sl.CancelledAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sl)
	}
	return sales, nil
}

func (s *saleService) fetchPayments(ctx context.Context, saleID int) ([]PaymentDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, method, amount, bank_name, card_last_digits,
		       cheque_name, cheque_date::text, reference_number
		FROM sale_payments
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("fetch payments for sale %d: %w", saleID, err)
	}
	defer rows.Close()

	var payments []PaymentDetail
	for rows.Next() {
		var p PaymentDetail
		if err := rows.Scan(
			&p.ID, &p.SaleID, &p.Method, &p.Amount, &p.BankName, &p.CardLastDigits,
			&p.ChequeName, &p.ChequeDate, &p.ReferenceNumber,
		); err != nil {
			return nil, fmt.Errorf("scan payment split: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func fetchSaleLines(ctx context.Context, q querier, saleID int) ([]SaleLine, error) {
	rows, err := q.Query(ctx, `
		SELECT sl.id, sl.sale_id, sl.line_number,
		       sl.item_id, i.name, i.unit, sl.batch_number,
		       sl.quantity, sl.unit_price, sl.labour_charge, sl.line_total
		FROM sale_lines sl
		JOIN items i ON i.id = sl.item_id
		WHERE sl.sale_id = $1
		ORDER BY sl.line_number
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("fetch sale lines for %d: %w", saleID, err)
	}
	defer rows.Close()

	var lines []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(
			&l.ID, &l.SaleID, &l.LineNumber,
			&l.ItemID, &l.ItemName, &l.Unit, &l.BatchNumber,
			&l.Quantity, &l.UnitPrice, &l.LabourCharge, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
