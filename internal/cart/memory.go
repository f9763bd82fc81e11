package cart

import (
	"context"
	"sync"

	"github.com/nkashyap/storefront/internal/models"
)

// MemoryStore holds carts in process memory. Used by tests and as a
// fallback when Redis is not wired in.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[int]map[int]int // userID -> productID -> quantity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[int]map[int]int)}
}

func (s *MemoryStore) Set(ctx context.Context, userID, productID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.carts[userID]
	if !ok {
		lines = make(map[int]int)
		s.carts[userID] = lines
	}
	lines[productID] = quantity
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, userID, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lines, ok := s.carts[userID]; ok {
		delete(lines, productID)
	}
	return nil
}

func (s *MemoryStore) Lines(ctx context.Context, userID int) ([]models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CartLine
	for productID, qty := range s.carts[userID] {
		out = append(out, models.CartLine{ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
