package fanout

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/models"
)

// recentOrderLimit caps the rolling log of order events replayed to
// staff sessions on subscribe.
const recentOrderLimit = 10

// Hub is the in-process broadcast point for stock and order events.
// Delivery is best-effort: a session whose buffer is full loses the
// event, and the session is expected to reconcile with a normal fetch.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	recent   []models.NewOrderEvent
	buffer   int
	logger   *zap.Logger
}

// Session is one connected consumer. Staff sessions additionally
// receive order events.
type Session struct {
	events chan models.Event
	staff  bool
	hub    *Hub
	once   sync.Once
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		sessions: make(map[*Session]struct{}),
		buffer:   buffer,
		logger:   logger,
	}
}

// Subscribe registers a new session. Staff sessions get the recent
// order log replayed into their channel so a reconnecting dashboard
// starts from a useful state without event redelivery guarantees.
func (h *Hub) Subscribe(staff bool) *Session {
	s := &Session{
		events: make(chan models.Event, h.buffer),
		staff:  staff,
		hub:    h,
	}

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	if staff {
		for i := len(h.recent) - 1; i >= 0; i-- {
			s.deliver(h.recent[i])
		}
	}
	h.mu.Unlock()

	return s
}

// Publish broadcasts the event to every eligible session without ever
// blocking on a slow consumer.
func (h *Hub) Publish(ev models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if order, ok := ev.(models.NewOrderEvent); ok {
		h.remember(order)
	}

	for s := range h.sessions {
		if ev.StaffOnly() && !s.staff {
			continue
		}
		if !s.deliver(ev) && h.logger != nil {
			h.logger.Debug("dropped event for slow session",
				zap.String("kind", ev.Kind()),
				zap.String("key", ev.Key()))
		}
	}
}

// remember keeps the newest-first rolling order log, deduplicated by
// order id so a replayed event cannot appear twice.
func (h *Hub) remember(ev models.NewOrderEvent) {
	for i, prev := range h.recent {
		if prev.OrderID == ev.OrderID {
			h.recent[i] = ev
			return
		}
	}
	h.recent = append([]models.NewOrderEvent{ev}, h.recent...)
	if len(h.recent) > recentOrderLimit {
		h.recent = h.recent[:recentOrderLimit]
	}
}

// Recent returns a copy of the rolling order log, newest first.
func (h *Hub) Recent() []models.NewOrderEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.NewOrderEvent, len(h.recent))
	copy(out, h.recent)
	return out
}

// Events is the session's receive channel. Closed by Close.
func (s *Session) Events() <-chan models.Event {
	return s.events
}

// Close deregisters the session and closes its channel.
func (s *Session) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.sessions, s)
		s.hub.mu.Unlock()
		close(s.events)
	})
}

func (s *Session) deliver(ev models.Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
