// Package cartsession owns the in-memory cart of one browsing session and
// keeps a remote shadow of it current for signed-in users.
//
// Local mutations are serialized and applied immediately; every mutation
// fires its own detached snapshot write to the remote store. Writes are not
// awaited, queued, or coalesced, so overlapping writes may land out of order
// and the last write to physically complete determines the durable record.
// That weak consistency is an accepted trade-off for a shopping cart.
package cartsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dukahq/duka-backend/internal/cartstore"
	"github.com/dukahq/duka-backend/internal/identity"
	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
	"github.com/dukahq/duka-backend/pkg/logger"
	"github.com/dukahq/duka-backend/pkg/metrics"
	"github.com/dukahq/duka-backend/pkg/types"
)

// State is the lifecycle phase of a session's cart.
type State int

const (
	// StateUninitialized is the zero state before Start.
	StateUninitialized State = iota
	// StateLoading means a remote read for the current identity is in flight.
	StateLoading
	// StateReady accepts mutations. Guest sessions are Ready with nil identity.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Params configures a Manager.
type Params struct {
	SessionID    string
	Store        cartstore.Store
	Logger       *logger.Logger
	Metrics      *metrics.CartMetrics
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Manager is the single source of truth for one browsing session's cart.
// The presentation layer reads through Cart and dispatches mutations; it
// never touches the line slice directly.
type Manager struct {
	sessionID    string
	store        cartstore.Store
	logg         *logger.Logger
	metrics      *metrics.CartMetrics
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu         sync.Mutex
	state      State
	identity   *identity.Identity
	lines      types.CartLines
	generation uint64

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func NewManager(params Params) (*Manager, error) {
	if strings.TrimSpace(params.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.ReadTimeout <= 0 {
		params.ReadTimeout = defaultReadTimeout
	}
	if params.WriteTimeout <= 0 {
		params.WriteTimeout = defaultWriteTimeout
	}
	return &Manager{
		sessionID:    params.SessionID,
		store:        params.Store,
		logg:         params.Logger,
		metrics:      params.Metrics,
		readTimeout:  params.ReadTimeout,
		writeTimeout: params.WriteTimeout,
		state:        StateUninitialized,
		lines:        types.CartLines{},
		subs:         map[int]func(){},
	}, nil
}

// Start moves the manager out of Uninitialized: straight to Ready with an
// empty cart for guests, or into Loading when an identity is already bound.
func (m *Manager) Start(ident *identity.Identity) {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return
	}
	if ident == nil {
		m.state = StateReady
		m.mu.Unlock()
		m.notify()
		return
	}
	m.identity = ident
	m.state = StateLoading
	gen := m.generation
	m.mu.Unlock()

	m.loadAsync(*ident, gen)
	m.notify()
}

// SetIdentity applies an identity transition. Any change discards the
// in-memory cart without writing it back: the last successful upsert stays
// the durable version, and a guest cart accumulated while signed out is
// dropped rather than merged. A transition to an identity re-enters Loading;
// a transition to guest goes straight to Ready-empty.
func (m *Manager) SetIdentity(ident *identity.Identity) {
	m.mu.Lock()
	if m.state == StateUninitialized {
		m.mu.Unlock()
		m.Start(ident)
		return
	}
	if sameIdentity(m.identity, ident) {
		m.mu.Unlock()
		return
	}

	m.generation++
	m.identity = ident
	m.lines = types.CartLines{}
	if ident == nil {
		m.state = StateReady
		m.mu.Unlock()
		m.notify()
		return
	}
	m.state = StateLoading
	gen := m.generation
	m.mu.Unlock()

	m.loadAsync(*ident, gen)
	m.notify()
}

// loadAsync reads the remote record for ident in the background. The result
// is applied only if the generation it was issued under is still current; a
// late read for a previous identity is discarded, never applied.
func (m *Manager) loadAsync(ident identity.Identity, gen uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.readTimeout)
		defer cancel()
		ctx = m.logg.WithSessionID(ctx, m.sessionID)
		ctx = m.logg.WithIdentityID(ctx, ident.ID)

		record, err := m.store.Read(ctx, ident.ID)

		m.mu.Lock()
		if gen != m.generation {
			m.mu.Unlock()
			m.metrics.IncStaleReadDiscarded()
			m.logg.Debug(ctx, "discarded stale cart read")
			return
		}
		switch {
		case err != nil:
			m.lines = types.CartLines{}
			m.metrics.IncReadFailed()
			m.logg.Error(ctx, "cart read failed, falling back to empty cart", err)
		case record == nil:
			m.lines = types.CartLines{}
		default:
			m.lines = record.Lines.Clone()
		}
		m.state = StateReady
		m.mu.Unlock()
		m.notify()
	}()
}

// Add puts qty units of the product into the cart. The line keeps the
// product attributes as they were at add time; a repeat add for the same
// product id bumps the existing line's quantity instead of duplicating it.
func (m *Manager) Add(product types.CartLine, qty int) error {
	if strings.TrimSpace(product.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	m.mu.Lock()
	if m.state != StateReady {
		state := m.state
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart is %s, not ready", state))
	}
	updated := false
	for i := range m.lines {
		if m.lines[i].ProductID == product.ProductID {
			m.lines[i].Quantity += qty
			updated = true
			break
		}
	}
	if !updated {
		product.Quantity = qty
		m.lines = append(m.lines, product)
	}
	m.persistLocked()
	m.mu.Unlock()

	m.notify()
	return nil
}

// Remove deletes the line for productID. Removing an absent id is a no-op:
// nothing changes, nothing is written.
func (m *Manager) Remove(productID string) error {
	m.mu.Lock()
	if m.state != StateReady {
		state := m.state
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart is %s, not ready", state))
	}
	idx := -1
	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
	m.persistLocked()
	m.mu.Unlock()

	m.notify()
	return nil
}

// SetQuantity sets the line for productID to exactly n units. n < 1 is
// rejected before any state is touched; the cart never holds a line with
// quantity below 1. Setting an absent id is a no-op.
func (m *Manager) SetQuantity(productID string, n int) error {
	if n < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	m.mu.Lock()
	if m.state != StateReady {
		state := m.state
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart is %s, not ready", state))
	}
	idx := -1
	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	m.lines[idx].Quantity = n
	m.persistLocked()
	m.mu.Unlock()

	m.notify()
	return nil
}

// Clear empties the cart.
func (m *Manager) Clear() error {
	m.mu.Lock()
	if m.state != StateReady {
		state := m.state
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart is %s, not ready", state))
	}
	m.lines = types.CartLines{}
	m.persistLocked()
	m.mu.Unlock()

	m.notify()
	return nil
}

// persistLocked fires one detached write carrying the full current snapshot.
// Guests are skipped: the cart is durable only while an identity is present.
// The write is never awaited and a failure is logged and dropped; local state
// stays authoritative for the rest of the session either way.
func (m *Manager) persistLocked() {
	if m.identity == nil {
		return
	}
	identityID := m.identity.ID
	snapshot := m.lines.Clone()
	m.metrics.IncWriteFired()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
		defer cancel()
		ctx = m.logg.WithSessionID(ctx, m.sessionID)
		ctx = m.logg.WithIdentityID(ctx, identityID)

		err := m.store.Write(ctx, identityID, cartstore.CartRecord{Lines: snapshot})
		if err != nil {
			m.metrics.IncWriteDropped()
			m.logg.Error(ctx, "cart write failed, dropping snapshot", err)
		}
	}()
}

// Cart returns a copy of the current lines; mutating it does not touch the
// manager's state.
func (m *Manager) Cart() types.CartLines {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines.Clone()
}

// TotalCents is derived from the lines, never stored.
func (m *Manager) TotalCents() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines.TotalCents()
}

// State reports the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the identity bound to this session, or nil for guests.
func (m *Manager) Identity() *identity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	ident := *m.identity
	return &ident
}

// Subscribe registers fn to run after every cart change. The returned cancel
// removes the subscription. Callbacks run outside the manager's lock and
// should read back through Cart.
func (m *Manager) Subscribe(fn func()) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// HasSubscribers reports whether any change-notification callback is
// registered, e.g. an open event stream.
func (m *Manager) HasSubscribers() bool {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return len(m.subs) > 0
}

func (m *Manager) notify() {
	m.subMu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func sameIdentity(a, b *identity.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
