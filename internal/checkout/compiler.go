package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/ledger"
	"github.com/nkashyap/storefront/internal/models"
)

var ErrEmptyCart = errors.New("cart is empty")

// ProductReader supplies the live product needed for the price
// snapshot at commit time.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// OrderWriter persists the compiled order.
type OrderWriter interface {
	Create(ctx context.Context, order *models.Order) error
}

// Publisher receives the NewOrderEvent after a successful commit.
type Publisher interface {
	Publish(models.Event)
}

// Compiler turns a cart snapshot plus shipping details into an
// immutable order, debiting the stock ledger line by line. The
// multi-line debit is not one global transaction: each line is an
// atomic per-product adjustment, and a failure compensates the lines
// already applied with relative re-credits before surfacing.
type Compiler struct {
	carts    *cart.Service
	ledger   ledger.Ledger
	products ProductReader
	orders   OrderWriter
	pub      Publisher
	taxRate  float64
	logger   *zap.Logger
}

func NewCompiler(carts *cart.Service, ldg ledger.Ledger, products ProductReader,
	orders OrderWriter, pub Publisher, taxRate float64, logger *zap.Logger) *Compiler {
	return &Compiler{
		carts:    carts,
		ledger:   ldg,
		products: products,
		orders:   orders,
		pub:      pub,
		taxRate:  taxRate,
		logger:   logger,
	}
}

type debit struct {
	productID int
	quantity  int
}

// Compile reads the user's cart, debits stock per line, snapshots
// prices, persists the order and clears the cart. The caller sees
// either a committed order or a single typed failure; rollback of a
// partial debit never surfaces.
func (c *Compiler) Compile(ctx context.Context, userID int, shipping models.ShippingInfo) (*models.Order, error) {
	lines, err := c.carts.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Deterministic debit order keeps concurrent compilations from
	// interleaving lines in opposite directions.
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var (
		debited  []debit
		items    []models.OrderItem
		subtotal float64
	)

	for _, line := range lines {
		product, err := c.products.GetByID(ctx, line.ProductID)
		if err != nil {
			c.rollback(ctx, debited)
			return nil, err
		}

		if _, err := c.ledger.Adjust(ctx, line.ProductID, -line.Quantity); err != nil {
			c.rollback(ctx, debited)
			return nil, err
		}
		debited = append(debited, debit{productID: line.ProductID, quantity: line.Quantity})

		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.SellingPrice,
		})
		subtotal += product.SellingPrice * float64(line.Quantity)
	}

	tax := subtotal * c.taxRate
	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Shipping:  shipping,
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal + tax,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := c.orders.Create(ctx, order); err != nil {
		c.rollback(ctx, debited)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := c.carts.Clear(ctx, userID); err != nil {
		// Order is committed; a stale cart is recoverable on the next
		// mutation, so log and move on.
		c.logger.Warn("failed to clear cart after checkout",
			zap.Int("user_id", userID), zap.Error(err))
	}

	c.pub.Publish(newOrderEvent(order))

	c.logger.Info("order compiled",
		zap.String("order_id", order.ID),
		zap.Int("user_id", userID),
		zap.Float64("total", order.Total),
		zap.Int("lines", len(items)))

	return order, nil
}

// rollback re-credits already-debited lines with relative
// adjustments. A concurrent restock between failure and compensation
// is safe because the compensation is +qty, never an absolute set.
func (c *Compiler) rollback(ctx context.Context, debited []debit) {
	ctx = context.WithoutCancel(ctx)
	for i := len(debited) - 1; i >= 0; i-- {
		d := debited[i]
		if _, err := c.ledger.Adjust(ctx, d.productID, d.quantity); err != nil {
			c.logger.Error("failed to compensate stock debit",
				zap.Int("product_id", d.productID),
				zap.Int("quantity", d.quantity),
				zap.Error(err))
		}
	}
}

func newOrderEvent(order *models.Order) models.NewOrderEvent {
	ev := models.NewOrderEvent{
		OrderID:       order.ID,
		CustomerName:  order.Shipping.Name,
		CustomerPhone: order.Shipping.Phone,
		Total:         order.Total,
		ItemCount:     len(order.Items),
	}
	for _, item := range order.Items {
		ev.Items = append(ev.Items, models.OrderLineBrief{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
		ev.TotalQuantity += item.Quantity
	}
	return ev
}
