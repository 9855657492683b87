// Package realtime streams appointment changes from the database to live
// subscribers.
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barbershop-booking/internal/metrics"
	"barbershop-booking/internal/model"
)

// Hub fans changes out to subscribers. Delivery is best effort: a
// subscriber whose buffer is full misses the event and is expected to
// refetch.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan model.Change
	buf    int
	closed bool
	log    *zap.Logger
}

func NewHub(buf int, log *zap.Logger) *Hub {
	if buf <= 0 {
		buf = 16
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[string]chan model.Change), buf: buf, log: log}
}

// Subscribe registers a new subscriber. cancel must be called when the
// subscriber goes away; it closes the channel.
func (h *Hub) Subscribe() (id string, ch <-chan model.Change, cancel func()) {
	id = uuid.NewString()
	c := make(chan model.Change, h.buf)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(c)
		return id, c, func() {}
	}
	h.subs[id] = c
	h.mu.Unlock()
	metrics.ChangeSubscribers.Inc()

	var once sync.Once
	return id, c, func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(c)
		metrics.ChangeSubscribers.Dec()
	}
}

// Publish never blocks.
func (h *Hub) Publish(c model.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- c:
		default:
			metrics.ChangesDropped.Inc()
			h.log.Debug("change dropped for slow subscriber", zap.String("subscriber", id))
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.subs {
		delete(h.subs, id)
		close(c)
		metrics.ChangeSubscribers.Dec()
	}
}
