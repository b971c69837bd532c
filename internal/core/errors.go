package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for classification with errors.Is. The structured types
// below unwrap to these so callers can branch on the kind while still
// reading the offending (item, batch) out of the error value.
var (
	// ErrInsufficientStock is returned when a sale line's debit guard fails.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrReversalConflict is returned when a purchase cancellation cannot
	// remove its credited quantity because intervening sales consumed it.
	ErrReversalConflict = errors.New("reversal conflict")

	// ErrBatchNotFound is returned when an operation targets a (item, batch)
	// pair that has no ledger row.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrDocumentNotFound is returned when a purchase or sale ID does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAlreadyCancelled is returned when cancelling a document whose status
	// is already cancelled. Cancellation is never silently repeated.
	ErrAlreadyCancelled = errors.New("document already cancelled")

	// ErrInvalidInput is returned for malformed input rejected before any
	// unit of work opens.
	ErrInvalidInput = errors.New("invalid input")
)

// InsufficientStockError reports a failed sale debit with the exact shortfall,
// so callers can say "insufficient stock in batch X" precisely.
type InsufficientStockError struct {
	ItemID      int
	BatchNumber string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d batch %q: requested %s, available %s",
		e.ItemID, e.BatchNumber, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ReversalConflictError reports a purchase cancellation whose restore guard
// failed: the batch no longer holds the full receipt quantity being reversed.
type ReversalConflictError struct {
	ItemID      int
	BatchNumber string
	Reversing   decimal.Decimal
	Available   decimal.Decimal
}

func (e *ReversalConflictError) Error() string {
	return fmt.Sprintf("cannot reverse %s from item %d batch %q: only %s available",
		e.Reversing, e.ItemID, e.BatchNumber, e.Available)
}

func (e *ReversalConflictError) Unwrap() error {
	return ErrReversalConflict
}

// BatchNotFoundError reports an operation against a nonexistent ledger row.
type BatchNotFoundError struct {
	ItemID      int
	BatchNumber string
}

func (e *BatchNotFoundError) Error() string {
	return fmt.Sprintf("no batch %q for item %d", e.BatchNumber, e.ItemID)
}

func (e *BatchNotFoundError) Unwrap() error {
	return ErrBatchNotFound
}

// IsConflict reports whether err is a stock-level conflict (insufficient
// stock, reversal conflict, or double cancellation) as opposed to bad input,
// a missing record, or an infrastructure failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrReversalConflict) ||
		errors.Is(err, ErrAlreadyCancelled)
}

// IsNotFound reports whether err indicates a missing batch or document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) || errors.Is(err, ErrDocumentNotFound)
}
