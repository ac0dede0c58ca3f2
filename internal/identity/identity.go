package identity

import "sync"

// Identity is a signed-in principal. A nil *Identity means guest.
type Identity struct {
	ID    string
	Email string
}

// Event reports that the identity bound to a browsing session changed.
// Identity is nil on sign-out.
type Event struct {
	SessionID string
	Identity  *Identity
}

// Hub is an in-process fan-out for identity transitions. The auth layer
// publishes; the cart registry subscribes. Delivery is synchronous and
// in publish order, so a sign-out is never observed before the sign-in
// that preceded it.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]func(Event)
	next int
}

func NewHub() *Hub {
	return &Hub{subs: map[int]func(Event){}}
}

// Subscribe registers fn for every subsequent event. The returned cancel
// removes the subscription.
func (h *Hub) Subscribe(fn func(Event)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
