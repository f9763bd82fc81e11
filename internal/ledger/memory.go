package ledger

import (
	"context"
	"sync"

	"github.com/nkashyap/storefront/internal/models"
)

// MemoryLedger keeps stock counters in process memory with one lock
// per product, so adjustments on the same product serialize while
// different products never contend. Used by tests and as the wiring
// seam for single-node deployments without Postgres.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[int]*memEntry
	pub     Publisher
}

type memEntry struct {
	mu    sync.Mutex
	stock int
}

func NewMemoryLedger(pub Publisher) *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[int]*memEntry),
		pub:     pub,
	}
}

// Seed installs a product with an initial stock value. No event is
// emitted; seeding is setup, not a mutation.
func (l *MemoryLedger) Seed(productID, stock int) {
	l.mu.Lock()
	l.entries[productID] = &memEntry{stock: stock}
	l.mu.Unlock()
}

func (l *MemoryLedger) GetStock(ctx context.Context, productID int) (int, error) {
	e, err := l.entry(productID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stock, nil
}

func (l *MemoryLedger) Adjust(ctx context.Context, productID, delta int) (int, error) {
	e, err := l.entry(productID)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	next := e.stock + delta
	if next < 0 {
		e.mu.Unlock()
		return 0, ErrInsufficientStock
	}
	e.stock = next
	e.mu.Unlock()

	l.emit(productID, next)
	return next, nil
}

func (l *MemoryLedger) Set(ctx context.Context, productID, value int) (int, error) {
	if value < 0 {
		return 0, ErrInvalidStock
	}

	e, err := l.entry(productID)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.stock = value
	e.mu.Unlock()

	l.emit(productID, value)
	return value, nil
}

func (l *MemoryLedger) entry(productID int) (*memEntry, error) {
	l.mu.RLock()
	e, ok := l.entries[productID]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrProductNotFound
	}
	return e, nil
}

func (l *MemoryLedger) emit(productID, stock int) {
	if l.pub == nil {
		return
	}
	l.pub.Publish(models.StockChangeEvent{ProductID: productID, Stock: stock})
}
