package fanout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nkashyap/storefront/internal/models"
)

// Applying the same stock event twice must leave the view exactly as
// after the first application.
func TestStockView_ApplyIsIdempotent(t *testing.T) {
	view := NewStockView()
	ev := models.StockChangeEvent{ProductID: 7, Stock: 3}

	assert.True(t, view.Apply(ev), "first application changes the view")
	stock, ok := view.Stock(7)
	assert.True(t, ok)
	assert.Equal(t, 3, stock)

	assert.False(t, view.Apply(ev), "replay is a no-op")
	stock, _ = view.Stock(7)
	assert.Equal(t, 3, stock)
}

func TestStockView_OutOfOrderUpsert(t *testing.T) {
	view := NewStockView()

	assert.True(t, view.Apply(models.StockChangeEvent{ProductID: 1, Stock: 5}))
	assert.True(t, view.Apply(models.StockChangeEvent{ProductID: 1, Stock: 2}))
	// A late duplicate of an older value still upserts; consumers
	// reconcile via a full fetch, not event ordering.
	assert.True(t, view.Apply(models.StockChangeEvent{ProductID: 1, Stock: 5}))

	stock, _ := view.Stock(1)
	assert.Equal(t, 5, stock)
}
