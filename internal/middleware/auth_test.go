package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prepkit/internal/access"
	"prepkit/internal/session"
)

func testSessionStore(t *testing.T) *session.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, false)
}

// loginAs creates a session in the store and returns the cookie for it.
func loginAs(t *testing.T, store *session.Store, role string, twoFADone bool) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	_, err := store.Create(context.Background(), w, &session.Data{
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

// okHandler writes 200 and records whether it ran.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoadSessionPopulatesContext(t *testing.T) {
	store := testSessionStore(t)
	cookie := loginAs(t, store, "admin", true)

	var got *session.Data
	handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromCtx(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected session in context")
	}
	if got.Role != "admin" {
		t.Errorf("role: got %q, want %q", got.Role, "admin")
	}
}

func TestLoadSessionWithoutCookie(t *testing.T) {
	store := testSessionStore(t)

	var got *session.Data
	handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromCtx(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got != nil {
		t.Error("expected nil session for anonymous request")
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	var called bool
	handler := RequireAuth(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", w.Code)
	}
	if called {
		t.Error("downstream handler must not run")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q, want application/json", ct)
	}
}

func TestRequireAuthPassesAuthenticated(t *testing.T) {
	store := testSessionStore(t)
	cookie := loginAs(t, store, "student", true)

	var called bool
	handler := LoadSession(store)(RequireAuth(okHandler(&called)))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", w.Code)
	}
	if !called {
		t.Error("downstream handler should run")
	}
}

func TestRequire2FABlocksIncompleteLogin(t *testing.T) {
	store := testSessionStore(t)
	cookie := loginAs(t, store, "admin", false)

	var called bool
	handler := LoadSession(store)(RequireAuth(Require2FA(okHandler(&called))))

	req := httptest.NewRequest("GET", "/api/admin/products", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", w.Code)
	}
	if called {
		t.Error("downstream handler must not run before 2FA")
	}
}

func TestRequireRole(t *testing.T) {
	store := testSessionStore(t)

	tests := []struct {
		role       string
		wantStatus int
	}{
		{"admin", http.StatusOK},
		{"super_admin", http.StatusOK},
		{"content_manager", http.StatusForbidden},
		{"student", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			cookie := loginAs(t, store, tt.role, true)

			var called bool
			handler := LoadSession(store)(RequireAuth(RequireRole(access.Administrators)(okHandler(&called))))

			req := httptest.NewRequest("DELETE", "/api/admin/products/x", nil)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v with status %d", called, w.Code)
			}
		})
	}
}

func TestRequireRoleAnonymous(t *testing.T) {
	var called bool
	handler := RequireRole(access.ContentManagers)(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/products", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", w.Code)
	}
	if called {
		t.Error("downstream handler must not run")
	}
}
