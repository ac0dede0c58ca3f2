package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukahq/duka-backend/api/middleware"
	"github.com/dukahq/duka-backend/api/routes"
	authsvc "github.com/dukahq/duka-backend/internal/auth"
	"github.com/dukahq/duka-backend/internal/cartsession"
	"github.com/dukahq/duka-backend/internal/cartstore"
	"github.com/dukahq/duka-backend/internal/catalog"
	"github.com/dukahq/duka-backend/internal/identity"
	"github.com/dukahq/duka-backend/internal/users"
	"github.com/dukahq/duka-backend/pkg/auth/session"
	"github.com/dukahq/duka-backend/pkg/config"
	"github.com/dukahq/duka-backend/pkg/db"
	"github.com/dukahq/duka-backend/pkg/firebase"
	"github.com/dukahq/duka-backend/pkg/logger"
	"github.com/dukahq/duka-backend/pkg/metrics"
	"github.com/dukahq/duka-backend/pkg/migrate"
	"github.com/dukahq/duka-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if cfg.FeatureFlags.SeedCatalog {
		if n, err := catalog.Seed(context.Background(), dbClient.DB()); err != nil {
			logg.Error(context.Background(), "failed to seed catalog", err)
			os.Exit(1)
		} else if n > 0 {
			logg.Info(logg.WithField(context.Background(), "products", n), "seeded catalog")
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var firebaseClients *firebase.Clients
	if cfg.Firebase.UseFirebaseAuth() || cfg.CartStore.Driver == config.CartStoreFirestore {
		firebaseClients, err = firebase.New(context.Background(), cfg.Firebase, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap firebase", err)
			os.Exit(1)
		}
		defer firebaseClients.Close()
	}

	store, err := buildCartStore(cfg, redisClient, dbClient, firebaseClients)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	hub := identity.NewHub()
	cartRegistry, err := cartsession.NewRegistry(cartsession.RegistryParams{
		Store:         store,
		Logger:        logg,
		Metrics:       cartMetrics,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		ReadTimeout:   cfg.CartStore.ReadTimeout,
		WriteTimeout:  cfg.CartStore.WriteTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart registry", err)
		os.Exit(1)
	}
	detach := cartRegistry.Attach(hub)
	defer detach()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go cartRegistry.Run(sweepCtx)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	var authService authsvc.Service
	var firebaseVerifier middleware.IdentityVerifier
	if cfg.Firebase.UseFirebaseAuth() {
		verifier, err := identity.NewFirebaseVerifier(firebaseClients.Auth)
		if err != nil {
			logg.Error(context.Background(), "failed to create firebase verifier", err)
			os.Exit(1)
		}
		firebaseVerifier = verifier
	} else {
		authService, err = authsvc.NewService(authsvc.ServiceParams{
			UserRepo:       users.NewRepository(dbClient.DB()),
			SessionManager: sessionManager,
			IdentityHub:    hub,
			JWTConfig:      cfg.JWT,
			PasswordConfig: cfg.Password,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create auth service", err)
			os.Exit(1)
		}
	}

	handler, err := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		Redis:            redisClient,
		SessionManager:   sessionManager,
		AuthService:      authService,
		CatalogService:   catalogService,
		CartRegistry:     cartRegistry,
		FirebaseVerifier: firebaseVerifier,
		DBPinger:         dbClient,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build router", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"cart_store": cfg.CartStore.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildCartStore(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client, firebaseClients *firebase.Clients) (cartstore.Store, error) {
	switch cfg.CartStore.Driver {
	case config.CartStoreRedis:
		return cartstore.NewRedisStore(redisClient, cfg.CartStore.RedisTTL)
	case config.CartStorePostgres:
		return cartstore.NewGormStore(dbClient.DB())
	default:
		return cartstore.NewFirestoreStore(firebaseClients.Firestore, cfg.CartStore.Collection)
	}
}
