package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/checkout"
	"github.com/nkashyap/storefront/internal/models"
)

// OrderReader is the order repository surface for history views.
type OrderReader interface {
	GetByUser(ctx context.Context, userID int) ([]models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
}

type OrderHandler struct {
	compiler   *checkout.Compiler
	orders     OrderReader
	reconciler *admin.Reconciler
}

func NewOrderHandler(compiler *checkout.Compiler, orders OrderReader, reconciler *admin.Reconciler) *OrderHandler {
	return &OrderHandler{
		compiler:   compiler,
		orders:     orders,
		reconciler: reconciler,
	}
}

// CreateOrder compiles the caller's cart into an order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	session := sessionFrom(c)

	var shipping models.ShippingInfo
	if err := c.ShouldBindJSON(&shipping); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := h.compiler.Compile(c.Request.Context(), session.UserID, shipping)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOwnOrders returns the caller's order history
func (h *OrderHandler) ListOwnOrders(c *gin.Context) {
	session := sessionFrom(c)

	orders, err := h.orders.GetByUser(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// ListAllOrders returns every order. Staff only.
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.orders.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus transitions an order out of pending. Staff only.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := h.reconciler.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
