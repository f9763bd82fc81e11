package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/db"
	"github.com/nkashyap/storefront/internal/ledger"
	"github.com/nkashyap/storefront/internal/models"
)

// ProductReader is the slice of the product repository the cart needs
// for validation and for building full cart responses.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// Service validates cart mutations against the stock ledger and
// always returns the full post-mutation cart. The cart does not
// reserve stock: two users can jointly exceed availability, which is
// resolved at checkout, not here.
type Service struct {
	store    Store
	ledger   ledger.Ledger
	products ProductReader
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[int]*sync.Mutex // per-user mutation serialization
}

func NewService(store Store, ldg ledger.Ledger, products ProductReader, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ldg,
		products: products,
		logger:   logger,
		locks:    make(map[int]*sync.Mutex),
	}
}

// Add merges qty into an existing line (or creates one), re-validated
// against current stock. The cart is untouched on any failure.
func (s *Service) Add(ctx context.Context, userID, productID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.lockUser(userID)
	defer unlock()

	existing, err := s.lineQuantity(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.putLine(ctx, userID, productID, existing+qty); err != nil {
		return nil, err
	}
	return s.build(ctx, userID)
}

// Update replaces the line quantity outright.
func (s *Service) Update(ctx context.Context, userID, productID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.putLine(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.build(ctx, userID)
}

// Remove drops the line. Removing an absent line is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID int) (*models.Cart, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.build(ctx, userID)
}

// Get returns the cart joined with live product data.
func (s *Service) Get(ctx context.Context, userID int) (*models.Cart, error) {
	return s.build(ctx, userID)
}

// Lines exposes the raw stored lines for checkout.
func (s *Service) Lines(ctx context.Context, userID int) ([]models.CartLine, error) {
	return s.store.Lines(ctx, userID)
}

// Clear wipes the user's cart. Called after a successful checkout.
func (s *Service) Clear(ctx context.Context, userID int) error {
	return s.store.Clear(ctx, userID)
}

// putLine validates the final quantity against the ledger and stores
// it. Stock may drift afterwards; checkout is the authority.
func (s *Service) putLine(ctx context.Context, userID, productID, qty int) error {
	stock, err := s.ledger.GetStock(ctx, productID)
	if err != nil {
		return err
	}
	if qty > stock {
		return ErrQuantityExceedsStock
	}
	return s.store.Set(ctx, userID, productID, qty)
}

func (s *Service) lineQuantity(ctx context.Context, userID, productID int) (int, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		if line.ProductID == productID {
			return line.Quantity, nil
		}
	}
	return 0, nil
}

// build joins cart lines with live product data. Lines whose product
// has been deleted since they were added are skipped.
func (s *Service) build(ctx context.Context, userID int) (*models.Cart, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &models.Cart{Items: []models.CartItem{}}
	for _, line := range lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, db.ErrProductNotFound) {
				s.logger.Warn("dropping cart line for deleted product",
					zap.Int("user_id", userID),
					zap.Int("product_id", line.ProductID))
				continue
			}
			return nil, err
		}

		out.Items = append(out.Items, models.CartItem{
			ProductID:    product.ID,
			Name:         product.Name,
			SellingPrice: product.SellingPrice,
			Stock:        product.Stock,
			Quantity:     line.Quantity,
			LineTotal:    product.SellingPrice * float64(line.Quantity),
		})
		out.TotalQuantity += line.Quantity
		out.Subtotal += product.SellingPrice * float64(line.Quantity)
	}
	return out, nil
}

func (s *Service) lockUser(userID int) func() {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
