package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"prepkit/internal/cache"
	"prepkit/internal/models"
)

// catalogMux mounts the public catalog routes on a chi mux so URL
// parameters resolve.
func catalogMux(c *Catalog) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/products", c.ListProducts)
	r.Get("/api/products/{slug}", c.GetProduct)
	r.Get("/api/bundles", c.ListBundles)
	r.Get("/api/bundles/{slug}", c.GetBundle)
	return r
}

func TestListProductsPublishedOnly(t *testing.T) {
	s := testStore(t)
	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), nil, nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/products", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var body struct {
		Products []models.Product `json:"products"`
	}
	decodeBody(t, w, &body)

	if len(body.Products) == 0 {
		t.Fatal("expected published products")
	}
	for _, p := range body.Products {
		if p.PublishedAt == nil {
			t.Errorf("product %s returned without publish timestamp", p.Slug)
		}
	}
}

func TestGetProductBySlug(t *testing.T) {
	s := testStore(t)
	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), nil, nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/products/cissp-practice-exam", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var product models.Product
	decodeBody(t, w, &product)
	if product.Slug != "cissp-practice-exam" {
		t.Errorf("slug: got %q", product.Slug)
	}
}

func TestGetProductDraftAnswers404(t *testing.T) {
	s := testStore(t)
	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), nil, nil))

	// agile-quiz exists but has no publish timestamp.
	for _, slug := range []string{"agile-quiz", "no-such-product"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/products/"+slug, nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status got %d, want 404", slug, w.Code)
		}
	}
}

func TestListBundlesPublishedOnly(t *testing.T) {
	s := testStore(t)
	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), nil, nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/bundles", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var body struct {
		Bundles []models.Bundle `json:"bundles"`
	}
	decodeBody(t, w, &body)

	for _, b := range body.Bundles {
		if b.PublishedAt == nil {
			t.Errorf("bundle %s returned without publish timestamp", b.Slug)
		}
		if b.Slug == "all-access-bundle" {
			t.Error("draft bundle leaked into public listing")
		}
	}
}

func TestGetBundleBySlug(t *testing.T) {
	s := testStore(t)
	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), nil, nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/bundles/certification-starter-bundle", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	var bundle models.Bundle
	decodeBody(t, w, &bundle)
	if len(bundle.ProductIDs) == 0 {
		t.Error("expected bundle product ids in response")
	}
}

func TestCatalogCacheServesSecondRequest(t *testing.T) {
	s := testStore(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cc := cache.NewCatalogCache(client, time.Minute)

	mux := catalogMux(NewCatalog(s.Products(), s.Bundles(), cc, nil))

	// First request populates the cache.
	w1 := httptest.NewRecorder()
	mux.ServeHTTP(w1, httptest.NewRequest("GET", "/api/products", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", w1.Code)
	}

	// Second request must be served from cache with the same payload.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest("GET", "/api/products", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("second request: got %d, want 200", w2.Code)
	}
	if w1.Body.String() != w2.Body.String() {
		t.Error("cached payload differs from original response")
	}

	if _, ok := cc.Get(httptest.NewRequest("GET", "/", nil).Context(), cache.ProductListKey()); !ok {
		t.Error("expected product listing in cache after first request")
	}
}
