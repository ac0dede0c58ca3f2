package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukahq/duka-backend/api/controllers"
	"github.com/dukahq/duka-backend/api/middleware"
	authsvc "github.com/dukahq/duka-backend/internal/auth"
	"github.com/dukahq/duka-backend/internal/cartsession"
	"github.com/dukahq/duka-backend/internal/catalog"
	"github.com/dukahq/duka-backend/pkg/auth/session"
	"github.com/dukahq/duka-backend/pkg/config"
	"github.com/dukahq/duka-backend/pkg/logger"
	"github.com/dukahq/duka-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
}

// Deps bundles everything the router wires together.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	Redis            *redis.Client
	SessionManager   sessionManager
	AuthService      authsvc.Service
	CatalogService   catalog.Service
	CartRegistry     *cartsession.Registry
	FirebaseVerifier middleware.IdentityVerifier
	DBPinger         interface{ Ping(context.Context) error }
	MetricsHandler   http.Handler
}

func NewRouter(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	logg := deps.Logger

	cartController, err := controllers.NewCartController(deps.CartRegistry, deps.CatalogService, logg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Session(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(deps.DBPinger, deps.Redis)))
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	if deps.AuthService != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.SessionManager, cfg.JWT, logg))
		})
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
		r.Get("/{id}", controllers.GetProduct(deps.CatalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Post("/", controllers.CreateProduct(deps.CatalogService, logg))
			r.Put("/{id}/active", controllers.SetProductActive(deps.CatalogService, logg))
		})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		// Guests get a session-local cart; a bearer identity attaches the
		// session to its durable record.
		if cfg.Firebase.UseFirebaseAuth() {
			r.Use(middleware.OptionalFirebaseAuth(deps.FirebaseVerifier, logg))
		} else {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.SessionManager, logg))
		}

		r.Get("/", cartController.GetCart())
		r.Delete("/", cartController.ClearCart())
		r.Get("/events", cartController.Events())
		r.Post("/items", cartController.AddItem())
		r.Put("/items/{productId}", cartController.SetItemQuantity())
		r.Delete("/items/{productId}", cartController.RemoveItem())
	})

	return r, nil
}
