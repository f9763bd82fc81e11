package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/models"
)

type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart returns the caller's full cart
func (h *CartHandler) GetCart(c *gin.Context) {
	session := sessionFrom(c)

	result, err := h.carts.Get(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddToCart merges a quantity into the caller's cart and returns the
// full updated cart.
func (h *CartHandler) AddToCart(c *gin.Context) {
	session := sessionFrom(c)

	var req models.CartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.carts.Add(c.Request.Context(), session.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateCartItem replaces a line quantity and returns the full
// updated cart.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	session := sessionFrom(c)

	var req models.CartMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.carts.Update(c.Request.Context(), session.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RemoveFromCart drops a line and returns the full updated cart.
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	session := sessionFrom(c)

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": "invalid product ID"})
		return
	}

	result, err := h.carts.Remove(c.Request.Context(), session.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
