package cartsession

import (
	"testing"
	"time"

	"github.com/dukahq/duka-backend/internal/identity"
	"github.com/dukahq/duka-backend/pkg/types"
)

func newTestRegistry(t *testing.T, store *fakeStore) *Registry {
	t.Helper()
	r, err := NewRegistry(RegistryParams{
		Store:   store,
		Logger:  testLogger(),
		IdleTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}
	return r
}

func TestRegistryCreatesGuestManagerOnDemand(t *testing.T) {
	r := newTestRegistry(t, newFakeStore())

	m, err := r.Get("s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if m.State() != StateReady {
		t.Fatalf("expected a ready guest manager, got %s", m.State())
	}
	if m.Identity() != nil {
		t.Fatalf("expected a guest manager, got identity %+v", m.Identity())
	}

	again, err := r.Get("s1")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again != m {
		t.Fatal("expected the same manager for the same session id")
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live session, got %d", r.Len())
	}
}

func TestRegistryRejectsBlankSessionID(t *testing.T) {
	r := newTestRegistry(t, newFakeStore())
	if _, err := r.Get("  "); err == nil {
		t.Fatal("expected blank session id to be rejected")
	}
}

func TestRegistryRoutesIdentityEvents(t *testing.T) {
	store := newFakeStore()
	store.records["u1"] = types.CartLines{{ProductID: "A", Name: "MacBook Pro", UnitPriceCents: 1000, Quantity: 2}}
	r := newTestRegistry(t, store)
	hub := identity.NewHub()
	cancel := r.Attach(hub)
	defer cancel()

	other, err := r.Get("other")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if err := other.Add(macbook(), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	hub.Publish(identity.Event{SessionID: "s1", Identity: &identity.Identity{ID: "u1"}})

	m, err := r.Get("s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	awaitState(t, m, StateReady)
	cart := m.Cart()
	if len(cart) != 1 || cart[0].ProductID != "A" || cart[0].Quantity != 2 {
		t.Fatalf("expected u1's remote cart on the targeted session, got %+v", cart)
	}

	// The event must not leak into the other session.
	if otherCart := other.Cart(); len(otherCart) != 1 || otherCart[0].Quantity != 1 {
		t.Fatalf("identity event touched an unrelated session: %+v", otherCart)
	}

	hub.Publish(identity.Event{SessionID: "s1", Identity: nil})
	if cart := m.Cart(); len(cart) != 0 {
		t.Fatalf("expected empty cart after sign-out event, got %+v", cart)
	}
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	r := newTestRegistry(t, newFakeStore())
	base := time.Now()
	r.now = func() time.Time { return base }

	if _, err := r.Get("stale"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	r.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, err := r.Get("fresh"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// At base+90m the first session has been idle 90m (> 1h TTL), the second
	// only 60m.
	evicted := r.Sweep(base.Add(90 * time.Minute))
	if evicted != 1 {
		t.Fatalf("expected one eviction, got %d", evicted)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one surviving session, got %d", r.Len())
	}

	survivor, err := r.Get("fresh")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if survivor.State() != StateReady {
		t.Fatalf("surviving session unusable: %s", survivor.State())
	}
}

func TestRegistrySweepSkipsSessionsWithSubscribers(t *testing.T) {
	r := newTestRegistry(t, newFakeStore())
	base := time.Now()
	r.now = func() time.Time { return base }

	watched, err := r.Get("watched")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	cancel := watched.Subscribe(func() {})

	// Idle well past the TTL, but the open subscription pins the session:
	// evicting it would leave the event stream watching a manager the
	// registry no longer hands out.
	if evicted := r.Sweep(base.Add(2 * time.Hour)); evicted != 0 {
		t.Fatalf("expected no evictions while subscribed, got %d", evicted)
	}
	again, err := r.Get("watched")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if again != watched {
		t.Fatal("expected the subscribed manager to survive the sweep")
	}

	cancel()
	if evicted := r.Sweep(base.Add(2 * time.Hour)); evicted != 1 {
		t.Fatalf("expected eviction after unsubscribe, got %d", evicted)
	}
}
