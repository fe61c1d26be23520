// Package router sets up all HTTP routes and middleware chains for the
// API server. It organizes routes into public, authenticated, and admin
// groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prepkit/internal/access"
	"prepkit/internal/handlers"
	"prepkit/internal/metrics"
	"prepkit/internal/middleware"
	"prepkit/internal/session"
)

// loginRateLimit guards the credential endpoints.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. m may be nil to run without
// instrumentation; secureCookies marks the CSRF cookie Secure and
// should be true behind TLS.
func New(sessionStore *session.Store, m *metrics.Metrics, catalog *handlers.Catalog, purchases *handlers.Purchases, entitlements *handlers.Entitlements, auth *handlers.Auth, admin *handlers.Admin, secureCookies bool) chi.Router {
	r := chi.NewRouter()
	csrf := middleware.CSRF(secureCookies)

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Prometheus scrape endpoint.
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Public catalog — cached, anonymous.
		r.Get("/products", catalog.ListProducts)
		r.Get("/products/{slug}", catalog.GetProduct)
		r.Get("/bundles", catalog.ListBundles)
		r.Get("/bundles/{slug}", catalog.GetBundle)

		// Entitlement checks — anonymous allowed, guests read false.
		r.Get("/entitlements/products/{id}", entitlements.CheckProduct)
		r.Get("/entitlements/bundles/{id}", entitlements.CheckBundle)

		// Authentication — CSRF-protected and rate-limited.
		r.Route("/auth", func(r chi.Router) {
			r.Use(csrf)

			limiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)
			r.With(limiter.Middleware).Post("/login", auth.Login)
			r.With(limiter.Middleware).Post("/signup", auth.Signup)
			r.With(limiter.Middleware).Post("/password-reset", auth.PasswordReset)
			r.Post("/logout", auth.Logout)

			// 2FA — requires auth but NOT a completed second factor.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/2fa/setup", auth.TwoFASetup)
				r.Post("/2fa/verify", auth.TwoFAVerify)
			})
		})

		// Authenticated user surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", auth.Me)
			r.Get("/purchases", purchases.ListMine)
			r.With(csrf).Post("/checkout", purchases.Checkout)
		})

		// Admin surface — authenticated, 2FA-verified, role-gated,
		// CSRF-protected.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(csrf)

			// Catalog management — content managers and up.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(access.ContentManagers))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", admin.ProductsList)
					r.Post("/", admin.ProductCreate)
					r.Get("/{id}", admin.ProductGet)
					r.Patch("/{id}", admin.ProductUpdate)
					r.Delete("/{id}", admin.ProductDelete)
				})

				r.Route("/bundles", func(r chi.Router) {
					r.Get("/", admin.BundlesList)
					r.Post("/", admin.BundleCreate)
					r.Get("/{id}", admin.BundleGet)
					r.Patch("/{id}", admin.BundleUpdate)
					r.Delete("/{id}", admin.BundleDelete)
				})
			})

			// Ledger and accounts — administrators only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(access.Administrators))

				r.Get("/purchases", admin.PurchasesList)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", admin.UsersList)
					r.Post("/", admin.UserCreate)
					r.Post("/{id}/reset-2fa", admin.UserResetTOTP)
				})
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
