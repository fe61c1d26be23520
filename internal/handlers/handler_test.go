// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory fixture store and a miniredis
// session backend, so the suite needs no external services.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prepkit/internal/middleware"
	"prepkit/internal/models"
	"prepkit/internal/session"
	"prepkit/internal/store/memory"
)

// testStore returns a zero-latency memory store preloaded with the
// embedded fixtures.
func testStore(t *testing.T) *memory.Store {
	t.Helper()

	s := memory.New(0)
	if err := s.LoadFixtures(); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return s
}

// testSessions returns a session store backed by in-process miniredis.
func testSessions(t *testing.T) *session.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, false)
}

// sessionData builds an authenticated session payload for tests.
func sessionData(userID uuid.UUID, role string) *session.Data {
	return &session.Data{
		UserID:    userID,
		Email:     role + "@test.local",
		Name:      "Test " + role,
		Role:      role,
		TwoFADone: true,
		CreatedAt: time.Now(),
	}
}

// withSession attaches session data to the request context the way the
// LoadSession middleware would.
func withSession(r *http.Request, data *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, data))
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeBody decodes a JSON response body into dst.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// publishedProductID returns the id of a published fixture product.
func publishedProductID(t *testing.T, s *memory.Store) uuid.UUID {
	t.Helper()

	products, err := s.Products().ListPublished(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("no published fixture products")
	}
	return products[0].ID
}

// draftProductID returns the id of an unpublished fixture product.
func draftProductID(t *testing.T, s *memory.Store) uuid.UUID {
	t.Helper()

	all, err := s.Products().ListAll(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, p := range all {
		if !p.IsPublished() {
			return p.ID
		}
	}
	t.Fatal("no draft fixture product")
	return uuid.Nil
}

// publishedBundle returns a published fixture bundle.
func publishedBundle(t *testing.T, s *memory.Store) models.Bundle {
	t.Helper()

	bundles, err := s.Bundles().ListPublished(context.Background())
	if err != nil {
		t.Fatalf("list bundles: %v", err)
	}
	if len(bundles) == 0 {
		t.Fatal("no published fixture bundles")
	}
	return bundles[0]
}
