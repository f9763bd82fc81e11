package fanout

import (
	"sync"

	"github.com/nkashyap/storefront/internal/models"
)

// StockView is a consumer-side projection of stock events. Because
// each event carries the absolute stock value, Apply is an idempotent
// upsert: replaying the same event leaves the view unchanged.
type StockView struct {
	mu     sync.Mutex
	stocks map[int]int
}

func NewStockView() *StockView {
	return &StockView{stocks: make(map[int]int)}
}

// Apply records the event and reports whether it changed the view.
func (v *StockView) Apply(ev models.StockChangeEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	prev, seen := v.stocks[ev.ProductID]
	if seen && prev == ev.Stock {
		return false
	}
	v.stocks[ev.ProductID] = ev.Stock
	return true
}

// Stock returns the last observed stock for a product.
func (v *StockView) Stock(productID int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	stock, ok := v.stocks[productID]
	return stock, ok
}
