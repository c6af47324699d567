package store

import (
	"sync"

	"github.com/nconklindev/warrantor/internal/types"
)

// Hub fans change events out to the subscribers of every handle except the
// one that caused the change.
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

type subscription struct {
	origin     string
	collection types.Collection
	fn         func(Event)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscription)}
}

func (h *Hub) subscribe(origin string, c types.Collection, fn func(Event)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscription{origin: origin, collection: c, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// publish delivers ev synchronously. Subscribers run outside the lock so they
// may subscribe or write themselves.
func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	var targets []func(Event)
	for id := 0; id < h.next; id++ {
		sub, ok := h.subs[id]
		if !ok || sub.collection != ev.Collection || sub.origin == ev.Origin {
			continue
		}
		targets = append(targets, sub.fn)
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
}
