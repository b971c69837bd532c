package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentStatus string

const (
	StatusActive    DocumentStatus = "active"
	StatusCancelled DocumentStatus = "cancelled"
)

// Item is a sellable/stockable part from the catalog. It is reference data:
// the engine reads items to enrich documents but never writes them.
type Item struct {
	ID         int    `json:"id"`
	PartNumber string `json:"part_number"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
}

// Batch is one stock row per (item_id, batch_number). Quantity is the total
// ever received for the batch; AvailableQuantity is what a sale may still
// debit. Rows are created by the first purchase receipt referencing the pair
// and never deleted.
type Batch struct {
	ID                int             `json:"id"`
	ItemID            int             `json:"item_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	CreatedAt         time.Time       `json:"created_at"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Page is a validated pagination request. Bounds are enforced once here
// instead of being clamped ad hoc inside each query.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

// DefaultPage returns the first page with the default size.
func DefaultPage() Page {
	return Page{Number: 1, Size: defaultPageSize}
}

func (p Page) Validate() error {
	if p.Number < 1 {
		return fmt.Errorf("%w: page number must be >= 1, got %d", ErrInvalidInput, p.Number)
	}
	if p.Size < 1 || p.Size > maxPageSize {
		return fmt.Errorf("%w: page size must be between 1 and %d, got %d", ErrInvalidInput, maxPageSize, p.Size)
	}
	return nil
}

func (p Page) Limit() int {
	return p.Size
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
