package models

import "strconv"

// Event is anything the fan-out can broadcast to connected sessions.
// Kind doubles as the SSE event name; Key identifies the entity the
// event upserts, so consumers can apply events idempotently.
type Event interface {
	Kind() string
	Key() string
	StaffOnly() bool
}

const (
	EventStockUpdate = "stock-update"
	EventNewOrder    = "new_order"
)

// StockChangeEvent carries the absolute new stock value, never a
// delta. Applying it twice is the same as applying it once.
type StockChangeEvent struct {
	ProductID int `json:"product_id"`
	Stock     int `json:"stock"`
}

func (StockChangeEvent) Kind() string    { return EventStockUpdate }
func (StockChangeEvent) StaffOnly() bool { return false }
func (e StockChangeEvent) Key() string   { return strconv.Itoa(e.ProductID) }

// NewOrderEvent is broadcast to staff sessions when an order commits.
type NewOrderEvent struct {
	OrderID       string           `json:"order_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	Items         []OrderLineBrief `json:"items"`
	Total         float64          `json:"total"`
	ItemCount     int              `json:"item_count"`
	TotalQuantity int              `json:"total_quantity"`
}

type OrderLineBrief struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

func (NewOrderEvent) Kind() string    { return EventNewOrder }
func (NewOrderEvent) StaffOnly() bool { return true }
func (e NewOrderEvent) Key() string   { return e.OrderID }
