package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/auth"
	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/checkout"
	"github.com/nkashyap/storefront/internal/db"
	"github.com/nkashyap/storefront/internal/ledger"
)

// Error kinds exposed to the UI layer. HTTP status codes are a
// transport detail; clients dispatch on these strings.
const (
	KindInvalidQuantity        = "invalid_quantity"
	KindQuantityExceedsStock   = "quantity_exceeds_stock"
	KindInsufficientStock      = "insufficient_stock"
	KindEmptyCart              = "empty_cart"
	KindInvalidTransition      = "invalid_transition"
	KindAuthenticationRequired = "authentication_required"
	KindNotFound               = "not_found"
	KindValidationFailed       = "validation_failed"
	KindInternal               = "internal"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, admin.ErrInvalidRestockQuantity),
		errors.Is(err, ledger.ErrInvalidStock):
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindInvalidQuantity, "error": err.Error()})

	case errors.Is(err, cart.ErrQuantityExceedsStock):
		c.JSON(http.StatusConflict, gin.H{"error_kind": KindQuantityExceedsStock, "error": err.Error()})

	case errors.Is(err, ledger.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error_kind": KindInsufficientStock, "error": err.Error()})

	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindEmptyCart, "error": err.Error()})

	case errors.Is(err, admin.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error_kind": KindInvalidTransition, "error": err.Error()})

	case errors.Is(err, auth.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error_kind": KindAuthenticationRequired, "error": err.Error()})

	case errors.Is(err, db.ErrProductNotFound),
		errors.Is(err, db.ErrOrderNotFound),
		errors.Is(err, db.ErrUserNotFound),
		errors.Is(err, ledger.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error_kind": KindNotFound, "error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error_kind": KindInternal, "error": err.Error()})
	}
}

// respondBindingError turns gin/validator binding failures into a
// field-level message map.
func respondBindingError(c *gin.Context, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		fields := make(map[string]string, len(vErrs))
		for _, fe := range vErrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error_kind": KindValidationFailed, "error": err.Error()})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
