package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepkit/internal/models"
	"prepkit/internal/store/memory"
)

func adminMux(s *memory.Store) *chi.Mux {
	a := NewAdmin(s.Products(), s.Bundles(), s.Purchases(), s.Users(), nil)

	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/products", a.ProductsList)
		r.Post("/products", a.ProductCreate)
		r.Get("/products/{id}", a.ProductGet)
		r.Patch("/products/{id}", a.ProductUpdate)
		r.Delete("/products/{id}", a.ProductDelete)

		r.Get("/bundles", a.BundlesList)
		r.Post("/bundles", a.BundleCreate)
		r.Get("/bundles/{id}", a.BundleGet)
		r.Patch("/bundles/{id}", a.BundleUpdate)
		r.Delete("/bundles/{id}", a.BundleDelete)

		r.Get("/purchases", a.PurchasesList)
		r.Get("/users", a.UsersList)
		r.Post("/users", a.UserCreate)
		r.Post("/users/{id}/totp/reset", a.UserResetTOTP)
	})
	return r
}

func TestAdminProductsListIncludesDrafts(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/products", nil))

	var body struct {
		Products []models.Product `json:"products"`
	}
	decodeBody(t, w, &body)

	hasDraft := false
	for _, p := range body.Products {
		if !p.IsPublished() {
			hasDraft = true
		}
	}
	if !hasDraft {
		t.Error("admin listing must include drafts")
	}
}

func TestAdminProductCreate(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, jsonRequest(t, "POST", "/api/admin/products", map[string]any{
		"name":         "Network+ Practice Exam",
		"price":        map[string]any{"amount": 2499, "currency": "USD"},
		"type":         "exam",
		"question_ids": []string{"q-5001"},
		"published":    true,
	}))

	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", w.Code, w.Body.String())
	}

	var created models.Product
	decodeBody(t, w, &created)
	if created.Slug != "network-practice-exam" {
		t.Errorf("derived slug: got %q, want %q", created.Slug, "network-practice-exam")
	}
	if created.PublishedAt == nil {
		t.Error("expected publish timestamp from published flag")
	}
}

func TestAdminProductCreateValidation(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{
			"price": map[string]any{"amount": 100, "currency": "USD"}, "type": "exam",
		}},
		{"bad type", map[string]any{
			"name": "X", "price": map[string]any{"amount": 100, "currency": "USD"}, "type": "webinar",
		}},
		{"negative price", map[string]any{
			"name": "X", "price": map[string]any{"amount": -5, "currency": "USD"}, "type": "quiz",
		}},
		{"unknown field", map[string]any{
			"name": "X", "price": map[string]any{"amount": 100, "currency": "USD"}, "type": "quiz", "surprise": true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, jsonRequest(t, "POST", "/api/admin/products", tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAdminProductUpdatePublishCycle(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	id := draftProductID(t, s)

	// Publish the draft.
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, jsonRequest(t, "PATCH", "/api/admin/products/"+id.String(), map[string]any{
		"publish": true,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("publish status: got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Product
	decodeBody(t, w, &updated)
	if updated.PublishedAt == nil {
		t.Fatal("expected publish timestamp after publish")
	}

	// The slug now resolves publicly.
	if found, _ := s.Products().FindBySlug(httptest.NewRequest("GET", "/", nil).Context(), updated.Slug); found == nil {
		t.Error("published product must resolve by slug")
	}

	// Unpublish hides it again.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, jsonRequest(t, "PATCH", "/api/admin/products/"+id.String(), map[string]any{
		"unpublish": true,
	}))
	var hidden models.Product
	decodeBody(t, w2, &hidden)
	if hidden.PublishedAt != nil {
		t.Error("expected publish timestamp cleared after unpublish")
	}

	// Both flags together are rejected.
	w3 := httptest.NewRecorder()
	mux.ServeHTTP(w3, jsonRequest(t, "PATCH", "/api/admin/products/"+id.String(), map[string]any{
		"publish": true, "unpublish": true,
	}))
	if w3.Code != http.StatusBadRequest {
		t.Errorf("conflicting flags: got %d, want 400", w3.Code)
	}
}

func TestAdminProductDelete(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	id := publishedProductID(t, s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/admin/products/"+id.String(), nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", w.Code)
	}

	// Deleting again answers 404.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest("DELETE", "/api/admin/products/"+id.String(), nil))
	if w2.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", w2.Code)
	}
}

func TestAdminBundleCreateChecksProductRefs(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	known := publishedProductID(t, s)

	// Unknown product reference is rejected.
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, jsonRequest(t, "POST", "/api/admin/bundles", map[string]any{
		"name":        "Broken Bundle",
		"price":       map[string]any{"amount": 1000, "currency": "USD"},
		"product_ids": []uuid.UUID{uuid.New()},
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown ref: got %d, want 400: %s", w.Code, w.Body.String())
	}

	// Valid reference succeeds.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, jsonRequest(t, "POST", "/api/admin/bundles", map[string]any{
		"name":                "Single Exam Bundle",
		"price":               map[string]any{"amount": 1000, "currency": "USD"},
		"product_ids":         []uuid.UUID{known},
		"discount_percentage": 10,
	}))
	if w2.Code != http.StatusCreated {
		t.Fatalf("valid bundle: got %d, want 201: %s", w2.Code, w2.Body.String())
	}

	var created models.Bundle
	decodeBody(t, w2, &created)
	if created.Slug != "single-exam-bundle" {
		t.Errorf("derived slug: got %q", created.Slug)
	}
}

func TestAdminBundleUpdateRejectsEmptyProducts(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	bundle := publishedBundle(t, s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, jsonRequest(t, "PATCH", "/api/admin/bundles/"+bundle.ID.String(), map[string]any{
		"product_ids": []uuid.UUID{},
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestAdminPurchasesList(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	productID := publishedProductID(t, s)
	s.Purchases().Create(httptest.NewRequest("GET", "/", nil).Context(), &models.Purchase{
		UserID:    uuid.New(),
		ProductID: &productID,
		Status:    models.PurchaseStatusCompleted,
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/purchases", nil))

	var body struct {
		Purchases []models.Purchase `json:"purchases"`
	}
	decodeBody(t, w, &body)
	if len(body.Purchases) != 1 {
		t.Errorf("ledger rows: got %d, want 1", len(body.Purchases))
	}
}

func TestAdminUserCreateAndList(t *testing.T) {
	s := testStore(t)
	mux := adminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, jsonRequest(t, "POST", "/api/admin/users", map[string]any{
		"email":    "editor@test.local",
		"password": "pass1234",
		"name":     "Editor",
		"role":     "content_manager",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", w.Code, w.Body.String())
	}

	// Invalid role is rejected.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, jsonRequest(t, "POST", "/api/admin/users", map[string]any{
		"email": "x@test.local", "password": "pass1234", "role": "owner",
	}))
	if w2.Code != http.StatusBadRequest {
		t.Errorf("invalid role: got %d, want 400", w2.Code)
	}

	w3 := httptest.NewRecorder()
	mux.ServeHTTP(w3, httptest.NewRequest("GET", "/api/admin/users", nil))

	var body struct {
		Users []models.User `json:"users"`
	}
	decodeBody(t, w3, &body)
	if len(body.Users) != 1 {
		t.Errorf("users: got %d, want 1", len(body.Users))
	}
}
