package models

// CartLine is the stored form of one cart entry: product and desired
// quantity. The cart is advisory; stock is only debited at checkout.
type CartLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// CartItem is a cart line joined with live product data for API
// responses. Stock here is the value at read time, not a reservation.
type CartItem struct {
	ProductID    int     `json:"product_id"`
	Name         string  `json:"name"`
	SellingPrice float64 `json:"selling_price"`
	Stock        int     `json:"stock"`
	Quantity     int     `json:"quantity"`
	LineTotal    float64 `json:"line_total"`
}

// Cart is the full authoritative cart state returned to the caller
// after every mutation.
type Cart struct {
	Items         []CartItem `json:"items"`
	TotalQuantity int        `json:"total_quantity"`
	Subtotal      float64    `json:"subtotal"`
}

// Quantity carries no binding tag: zero and negative values must
// reach the cart service so they fail with the invalid-quantity kind
// rather than a generic binding error.
type CartMutationRequest struct {
	ProductID int `json:"product_id" binding:"required"`
	Quantity  int `json:"quantity"`
}
