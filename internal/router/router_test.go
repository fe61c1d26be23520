package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prepkit/internal/entitlement"
	"prepkit/internal/handlers"
	"prepkit/internal/session"
	"prepkit/internal/store/memory"
)

// testRouter wires the full chain over the memory store and an
// in-process Valkey.
func testRouter(t *testing.T) (http.Handler, *session.Store) {
	t.Helper()

	s := memory.New(0)
	if err := s.LoadFixtures(); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := session.NewStore(client, false)
	resolver := entitlement.NewResolver(s.Purchases(), s.Bundles())

	catalog := handlers.NewCatalog(s.Products(), s.Bundles(), nil, nil)
	purchases := handlers.NewPurchases(s.Purchases(), s.Products(), s.Bundles(), nil)
	entitlements := handlers.NewEntitlements(resolver, nil)
	auth := handlers.NewAuth(sessions, s.Users())
	admin := handlers.NewAdmin(s.Products(), s.Bundles(), s.Purchases(), s.Users(), nil)

	return New(sessions, nil, catalog, purchases, entitlements, auth, admin, false), sessions
}

// sessionCookieFor creates a backend session with the given role and
// 2FA state and returns its cookie.
func sessionCookieFor(t *testing.T, sessions *session.Store, role string, twoFADone bool) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	_, err := sessions.Create(context.Background(), w, &session.Data{
		UserID:    uuid.New(),
		Email:     role + "@test.local",
		Role:      role,
		TwoFADone: twoFADone,
	})
	if err != nil {
		t.Fatalf("session create: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func get(t *testing.T, h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := testRouter(t)

	w := get(t, h, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", w.Code)
	}
	if w.Body.String() != `{"status":"ok"}` {
		t.Errorf("body: got %q", w.Body.String())
	}
}

func TestPublicCatalogIsAnonymous(t *testing.T) {
	h, _ := testRouter(t)

	for _, path := range []string{
		"/api/products",
		"/api/products/cissp-practice-exam",
		"/api/bundles",
		"/api/bundles/certification-starter-bundle",
	} {
		if w := get(t, h, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, w.Code)
		}
	}
}

func TestEntitlementsAnonymousReadFalse(t *testing.T) {
	h, _ := testRouter(t)

	w := get(t, h, "/api/entitlements/products/"+uuid.New().String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if w.Body.String() != "{\"granted\":false}\n" {
		t.Errorf("body: got %q", w.Body.String())
	}
}

func TestAuthenticatedRoutesReject401(t *testing.T) {
	h, _ := testRouter(t)

	for _, path := range []string{"/api/me", "/api/purchases"} {
		if w := get(t, h, path, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", path, w.Code)
		}
	}
}

func TestAdminRouteRoleGate(t *testing.T) {
	h, sessions := testRouter(t)

	tests := []struct {
		role string
		want int
	}{
		{"student", http.StatusForbidden},
		{"content_manager", http.StatusOK},
		{"admin", http.StatusOK},
		{"super_admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			cookie := sessionCookieFor(t, sessions, tt.role, true)
			if w := get(t, h, "/api/admin/products/", cookie); w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAdminLedgerIsAdministratorOnly(t *testing.T) {
	h, sessions := testRouter(t)

	// Content managers run the catalog but not the ledger.
	cm := sessionCookieFor(t, sessions, "content_manager", true)
	if w := get(t, h, "/api/admin/purchases", cm); w.Code != http.StatusForbidden {
		t.Errorf("content_manager on ledger: got %d, want 403", w.Code)
	}

	admin := sessionCookieFor(t, sessions, "admin", true)
	if w := get(t, h, "/api/admin/purchases", admin); w.Code != http.StatusOK {
		t.Errorf("admin on ledger: got %d, want 200", w.Code)
	}
}

func TestAdminRequiresCompleted2FA(t *testing.T) {
	h, sessions := testRouter(t)

	cookie := sessionCookieFor(t, sessions, "admin", false)
	if w := get(t, h, "/api/admin/products/", cookie); w.Code != http.StatusForbidden {
		t.Errorf("incomplete 2fa: got %d, want 403", w.Code)
	}
}

func TestCheckoutRequiresCSRF(t *testing.T) {
	h, sessions := testRouter(t)

	cookie := sessionCookieFor(t, sessions, "student", true)

	req := httptest.NewRequest("POST", "/api/checkout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("checkout without csrf token: got %d, want 403", w.Code)
	}
}

func TestSignupAnswers501(t *testing.T) {
	h, _ := testRouter(t)

	// The first POST is rejected for the missing token but still issues
	// the CSRF cookie.
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest("POST", "/api/auth/signup", nil))
	if first.Code != http.StatusForbidden {
		t.Fatalf("bootstrap request: got %d, want 403", first.Code)
	}

	var csrf *http.Cookie
	for _, c := range first.Result().Cookies() {
		if c.Name == "pk_csrf" {
			csrf = c
		}
	}
	if csrf == nil {
		t.Fatal("csrf cookie not issued")
	}

	req := httptest.NewRequest("POST", "/api/auth/signup", nil)
	req.AddCookie(csrf)
	req.Header.Set("X-CSRF-Token", csrf.Value)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Errorf("signup: got %d, want 501", w.Code)
	}
}
