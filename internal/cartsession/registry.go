package cartsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dukahq/duka-backend/internal/cartstore"
	"github.com/dukahq/duka-backend/internal/identity"
	"github.com/dukahq/duka-backend/pkg/logger"
	"github.com/dukahq/duka-backend/pkg/metrics"
)

const (
	defaultIdleTTL       = 2 * time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// RegistryParams configures a Registry and the managers it creates.
type RegistryParams struct {
	Store         cartstore.Store
	Logger        *logger.Logger
	Metrics       *metrics.CartMetrics
	IdleTTL       time.Duration
	SweepInterval time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

type registryEntry struct {
	manager  *Manager
	lastSeen time.Time
}

// Registry hands out one Manager per browsing session, creating them on
// demand and evicting the ones nobody has touched for the idle TTL. Identity
// transitions published on the hub are routed to the matching session's
// manager.
type Registry struct {
	store         cartstore.Store
	logg          *logger.Logger
	metrics       *metrics.CartMetrics
	idleTTL       time.Duration
	sweepInterval time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*registryEntry
	now      func() time.Time
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.IdleTTL <= 0 {
		params.IdleTTL = defaultIdleTTL
	}
	if params.SweepInterval <= 0 {
		params.SweepInterval = defaultSweepInterval
	}
	return &Registry{
		store:         params.Store,
		logg:          params.Logger,
		metrics:       params.Metrics,
		idleTTL:       params.IdleTTL,
		sweepInterval: params.SweepInterval,
		readTimeout:   params.ReadTimeout,
		writeTimeout:  params.WriteTimeout,
		sessions:      map[string]*registryEntry{},
		now:           time.Now,
	}, nil
}

// Get returns the manager for sessionID, creating a guest manager when the
// session is new, and refreshes the session's idle clock.
func (r *Registry) Get(sessionID string) (*Manager, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	r.mu.Lock()
	if entry, ok := r.sessions[sessionID]; ok {
		entry.lastSeen = r.now()
		m := entry.manager
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	m, err := NewManager(Params{
		SessionID:    sessionID,
		Store:        r.store,
		Logger:       r.logg,
		Metrics:      r.metrics,
		ReadTimeout:  r.readTimeout,
		WriteTimeout: r.writeTimeout,
	})
	if err != nil {
		return nil, err
	}
	m.Start(nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have raced the creation; keep theirs.
	if entry, ok := r.sessions[sessionID]; ok {
		entry.lastSeen = r.now()
		return entry.manager, nil
	}
	r.sessions[sessionID] = &registryEntry{manager: m, lastSeen: r.now()}
	return m, nil
}

// Attach subscribes the registry to identity transitions. The returned
// cancel detaches it.
func (r *Registry) Attach(hub *identity.Hub) func() {
	return hub.Subscribe(func(evt identity.Event) {
		m, err := r.Get(evt.SessionID)
		if err != nil {
			ctx := r.logg.WithSessionID(context.Background(), evt.SessionID)
			r.logg.Error(ctx, "dropping identity event for invalid session", err)
			return
		}
		m.SetIdentity(evt.Identity)
	})
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts every session idle longer than the TTL and reports how many
// were removed. Evicted carts are simply dropped: for signed-in users the
// remote record already holds the last successful snapshot, and guest carts
// do not outlive their session. A manager with live subscribers (an open
// event stream) is never evicted: the stream holds the only reference to it,
// and a re-created manager would leave the stream watching a dead one.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.idleTTL && !entry.manager.HasSubscribers() {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on the configured interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logg.Debug(ctx, fmt.Sprintf("evicted %d idle cart sessions", n))
			}
		}
	}
}
