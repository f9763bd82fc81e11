package ledger

import (
	"context"
	"errors"

	"github.com/nkashyap/storefront/internal/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidStock      = errors.New("stock value must be non-negative")
)

// Publisher receives a StockChangeEvent after every successful
// mutation. The fan-out hub (or its broker bridge) satisfies this.
type Publisher interface {
	Publish(models.Event)
}

// Ledger is the authoritative stock counter. All stock writes in the
// system go through Adjust or Set; nothing else touches the column.
type Ledger interface {
	// GetStock returns the current stock for a product.
	GetStock(ctx context.Context, productID int) (int, error)

	// Adjust applies a relative delta atomically per product and
	// returns the new stock. A delta that would drive stock negative
	// fails with ErrInsufficientStock and changes nothing.
	Adjust(ctx context.Context, productID, delta int) (int, error)

	// Set overwrites the stock value (staff override). Values below
	// zero fail with ErrInvalidStock.
	Set(ctx context.Context, productID, value int) (int, error)
}
