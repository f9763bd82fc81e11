package cart

import (
	"context"
	"errors"

	"github.com/nkashyap/storefront/internal/models"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")
)

// Store is raw per-user cart storage. Validation lives in Service;
// the store only upserts, removes and lists lines.
type Store interface {
	Set(ctx context.Context, userID, productID, quantity int) error
	Remove(ctx context.Context, userID, productID int) error
	Lines(ctx context.Context, userID int) ([]models.CartLine, error)
	Clear(ctx context.Context, userID int) error
}
