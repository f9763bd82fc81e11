package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/models"
)

type AdminHandler struct {
	reconciler *admin.Reconciler
}

func NewAdminHandler(reconciler *admin.Reconciler) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

// Restock credits stock for a product and returns the authoritative
// new value.
func (h *AdminHandler) Restock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": "invalid product ID"})
		return
	}

	var req models.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	stock, err := h.reconciler.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": id, "stock": stock})
}

// DeleteProduct removes a product from the catalog
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": "invalid product ID"})
		return
	}

	if err := h.reconciler.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// ListUsers returns all users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.reconciler.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// ChangeUserRole updates a user's role
func (h *AdminHandler) ChangeUserRole(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": "invalid user ID"})
		return
	}

	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.reconciler.ChangeUserRole(c.Request.Context(), id, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// DeleteUser removes a user
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": "invalid user ID"})
		return
	}

	if err := h.reconciler.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// Stats returns the admin dashboard summary
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.reconciler.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RevenueChart returns monthly completed-order revenue
func (h *AdminHandler) RevenueChart(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))

	revenue, err := h.reconciler.RevenueByMonth(c.Request.Context(), months)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, revenue)
}
