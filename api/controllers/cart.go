package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahq/duka-backend/api/middleware"
	"github.com/dukahq/duka-backend/api/responses"
	"github.com/dukahq/duka-backend/api/validators"
	"github.com/dukahq/duka-backend/internal/cartsession"
	"github.com/dukahq/duka-backend/internal/catalog"
	"github.com/dukahq/duka-backend/internal/identity"
	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
	"github.com/dukahq/duka-backend/pkg/logger"
	"github.com/dukahq/duka-backend/pkg/types"
)

// CartController is the presentation boundary to the per-session cart
// managers. It never mutates cart state itself; every request is dispatched
// to the session's manager.
type CartController struct {
	registry *cartsession.Registry
	catalog  catalog.Service
	logg     *logger.Logger
}

func NewCartController(registry *cartsession.Registry, catalogSvc catalog.Service, logg *logger.Logger) (*CartController, error) {
	if registry == nil {
		return nil, fmt.Errorf("cart registry is required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &CartController{registry: registry, catalog: catalogSvc, logg: logg}, nil
}

type cartResponse struct {
	State        string          `json:"state"`
	Lines        types.CartLines `json:"lines"`
	TotalCents   int64           `json:"total_cents"`
	DisplayTotal string          `json:"display_total"`
}

func snapshotResponse(m *cartsession.Manager) cartResponse {
	lines := m.Cart()
	total := lines.TotalCents()
	return cartResponse{
		State:        m.State().String(),
		Lines:        lines,
		TotalCents:   total,
		DisplayTotal: decimal.NewFromInt(total).Shift(-2).StringFixed(2),
	}
}

// manager resolves the request's cart manager. A bearer identity, when
// present, is attached to the session's manager; the attach is a no-op when
// the manager already holds that identity. An absent bearer never downgrades
// the manager to guest; only a logout event does that.
func (c *CartController) manager(r *http.Request) (*cartsession.Manager, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	m, err := c.registry.Get(sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve cart session")
	}

	if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
		m.SetIdentity(&identity.Identity{
			ID:    userID,
			Email: middleware.UserEmailFromContext(r.Context()),
		})
	}
	return m, nil
}

// GetCart returns the session's current cart.
func (c *CartController) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotResponse(m))
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

// AddItem snapshots the product from the catalog and puts it in the cart.
func (c *CartController) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		qty := body.Quantity
		if qty == 0 {
			qty = 1
		}

		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		line, err := c.catalog.Snapshot(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		if err := m.Add(*line, qty); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotResponse(m))
	}
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// SetItemQuantity sets a line to an exact quantity. Quantities below one are
// rejected here, before the cart is touched.
func (c *CartController) SetItemQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		if err := m.SetQuantity(chi.URLParam(r, "productId"), body.Quantity); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotResponse(m))
	}
}

// RemoveItem deletes a line. Removing an absent line succeeds.
func (c *CartController) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		if err := m.Remove(chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotResponse(m))
	}
}

// ClearCart empties the cart.
func (c *CartController) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		if err := m.Clear(); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotResponse(m))
	}
}

// Events streams cart changes for the session as server-sent events. The
// first frame is the current snapshot; every later frame is the cart after a
// change. Frames are coalesced while the client is slow; the latest
// snapshot always wins.
func (c *CartController) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := c.manager(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		changed := make(chan struct{}, 1)
		cancel := m.Subscribe(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer cancel()

		writeFrame := func() bool {
			payload, err := json.Marshal(snapshotResponse(m))
			if err != nil {
				return false
			}
			if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", payload); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !writeFrame() {
			return
		}

		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-changed:
				if !writeFrame() {
					return
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
