// Package main is the entry point for the PrepKit API server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepkit/internal/cache"
	"prepkit/internal/config"
	"prepkit/internal/database"
	"prepkit/internal/entitlement"
	"prepkit/internal/handlers"
	"prepkit/internal/metrics"
	"prepkit/internal/router"
	"prepkit/internal/session"
	"prepkit/internal/store"
	"prepkit/internal/store/memory"
	"prepkit/internal/store/postgres"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreDriver,
	)

	// Pick the storage backend. The memory driver carries its own
	// fixtures and simulated latency; postgres runs migrations and a
	// development seed.
	var (
		products  store.ProductStore
		bundles   store.BundleStore
		purchases store.PurchaseStore
		users     store.UserStore
	)

	switch cfg.StoreDriver {
	case "memory":
		mem := memory.New(memory.DefaultLatency)
		if err := mem.LoadFixtures(); err != nil {
			slog.Error("failed to load fixtures", "error", err)
			os.Exit(1)
		}
		products = mem.Products()
		bundles = mem.Bundles()
		purchases = mem.Purchases()
		users = mem.Users()
		slog.Info("memory store ready", "latency", memory.DefaultLatency)

	default:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		// Run pending migrations.
		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Seed development data (no-op if data already exists).
		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}

		products = postgres.NewProductStore(db)
		bundles = postgres.NewBundleStore(db)
		purchases = postgres.NewPurchaseStore(db)
		users = postgres.NewUserStore(db)
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Catalog responses are cached in Valkey; admin writes invalidate.
	catalogCache := cache.NewCatalogCache(valkeyClient, cache.DefaultCatalogTTL)

	// Prometheus instrumentation, scraped at /metrics.
	m := metrics.New("prepkit")

	// The entitlement resolver answers "may this user open this content"
	// from the purchase ledger and the bundle catalog.
	resolver := entitlement.NewResolver(purchases, bundles)

	// Create handler groups with their dependencies.
	catalogHandlers := handlers.NewCatalog(products, bundles, catalogCache, m)
	purchaseHandlers := handlers.NewPurchases(purchases, products, bundles, m)
	entitlementHandlers := handlers.NewEntitlements(resolver, m)
	authHandlers := handlers.NewAuth(sessionStore, users)
	adminHandlers := handlers.NewAdmin(products, bundles, purchases, users, catalogCache)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, m, catalogHandlers, purchaseHandlers, entitlementHandlers, authHandlers, adminHandlers, secureCookies)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
