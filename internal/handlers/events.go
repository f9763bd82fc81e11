package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/fanout"
)

type EventsHandler struct {
	hub *fanout.Hub
}

func NewEventsHandler(hub *fanout.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream is the persistent SSE channel. Everyone receives stock
// updates; staff sessions additionally receive order events, starting
// with a replay of the recent order log. Delivery is best-effort: a
// client that reconnects reconciles with a normal fetch instead of
// expecting missed events.
func (h *EventsHandler) Stream(c *gin.Context) {
	staff := false
	if session := sessionFrom(c); session != nil {
		staff = session.IsStaff()
	}

	session := h.hub.Subscribe(staff)
	defer session.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-session.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Kind(), ev)
			return true
		}
	})
}
