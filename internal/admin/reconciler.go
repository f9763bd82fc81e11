package admin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/db"
	"github.com/nkashyap/storefront/internal/ledger"
	"github.com/nkashyap/storefront/internal/models"
)

var (
	ErrInvalidTransition      = errors.New("illegal order status transition")
	ErrInvalidRestockQuantity = errors.New("restock quantity must be positive")
)

// OrderStore is the slice of the order repository staff operations
// need.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	Stats(ctx context.Context) (*db.OrderStats, error)
	RevenueByMonth(ctx context.Context, months int) ([]db.MonthRevenue, error)
}

type UserStore interface {
	GetAll(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id int, role string) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type ProductStore interface {
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// Reconciler implements the staff-side operations: restocking through
// the ledger, order status transitions, and plain user/product CRUD.
type Reconciler struct {
	ledger   ledger.Ledger
	orders   OrderStore
	users    UserStore
	products ProductStore
	logger   *zap.Logger
}

func NewReconciler(ldg ledger.Ledger, orders OrderStore, users UserStore,
	products ProductStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		ledger:   ldg,
		orders:   orders,
		users:    users,
		products: products,
		logger:   logger,
	}
}

// Restock credits stock through the ledger, which emits the stock
// change event. Returns the new authoritative stock value.
func (r *Reconciler) Restock(ctx context.Context, productID, qty int) (int, error) {
	if qty < 1 {
		return 0, ErrInvalidRestockQuantity
	}

	newStock, err := r.ledger.Adjust(ctx, productID, qty)
	if err != nil {
		return 0, err
	}

	r.logger.Info("product restocked",
		zap.Int("product_id", productID),
		zap.Int("quantity", qty),
		zap.Int("stock", newStock))

	return newStock, nil
}

// UpdateOrderStatus moves an order out of pending. Completed and
// cancelled are terminal; any other transition fails with
// ErrInvalidTransition and the stored status is untouched.
func (r *Reconciler) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if status != models.OrderStatusCompleted && status != models.OrderStatusCancelled {
		return nil, ErrInvalidTransition
	}

	ok, err := r.orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		// No pending row matched: either the order is missing or it
		// already left pending.
		if _, err := r.orders.GetByID(ctx, orderID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	r.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", status))

	return order, nil
}

func (r *Reconciler) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.users.GetAll(ctx)
}

func (r *Reconciler) ChangeUserRole(ctx context.Context, userID int, role string) error {
	return r.users.UpdateRole(ctx, userID, role)
}

func (r *Reconciler) DeleteUser(ctx context.Context, userID int) error {
	return r.users.Delete(ctx, userID)
}

func (r *Reconciler) DeleteProduct(ctx context.Context, productID int) error {
	return r.products.Delete(ctx, productID)
}

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	Products      int     `json:"products"`
	Users         int     `json:"users"`
	TotalOrders   int     `json:"total_orders"`
	PendingOrders int     `json:"pending_orders"`
	Revenue       float64 `json:"revenue"`
}

func (r *Reconciler) Stats(ctx context.Context) (*DashboardStats, error) {
	products, err := r.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	orderStats, err := r.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Products:      products,
		Users:         users,
		TotalOrders:   orderStats.TotalOrders,
		PendingOrders: orderStats.PendingOrders,
		Revenue:       orderStats.Revenue,
	}, nil
}

func (r *Reconciler) RevenueByMonth(ctx context.Context, months int) ([]db.MonthRevenue, error) {
	if months < 1 || months > 24 {
		months = 6
	}
	return r.orders.RevenueByMonth(ctx, months)
}
