package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepkit/internal/cache"
	"prepkit/internal/metrics"
	"prepkit/internal/store"
)

// Catalog groups the public storefront handlers. Listings and detail
// lookups see published entries only; drafts are invisible here no
// matter what the URL says.
type Catalog struct {
	products store.ProductStore
	bundles  store.BundleStore
	cache    *cache.CatalogCache
	metrics  *metrics.Metrics
}

// NewCatalog creates a new Catalog handler group. cache may be nil, in
// which case every request hits the store.
func NewCatalog(products store.ProductStore, bundles store.BundleStore, cc *cache.CatalogCache, m *metrics.Metrics) *Catalog {
	return &Catalog{products: products, bundles: bundles, cache: cc, metrics: m}
}

// serveCached writes the cached payload when present, otherwise builds
// the response with load, caches it, and writes it.
func (c *Catalog) serveCached(w http.ResponseWriter, r *http.Request, key string, load func(ctx context.Context) (any, int, error)) {
	if c.cache != nil {
		if payload, ok := c.cache.Get(r.Context(), key); ok {
			if c.metrics != nil {
				c.metrics.RecordCacheOutcome("hit")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}
		if c.metrics != nil {
			c.metrics.RecordCacheOutcome("miss")
		}
	}

	body, status, err := load(r.Context())
	if err != nil {
		respondInternalError(w, "catalog load failed", err)
		return
	}
	if status != http.StatusOK {
		respondError(w, status, "not found")
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		respondInternalError(w, "catalog encode failed", err)
		return
	}
	if c.cache != nil {
		c.cache.Set(r.Context(), key, payload)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// ListProducts returns all published products.
func (c *Catalog) ListProducts(w http.ResponseWriter, r *http.Request) {
	c.serveCached(w, r, cache.ProductListKey(), func(ctx context.Context) (any, int, error) {
		products, err := c.products.ListPublished(ctx)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"products": products}, http.StatusOK, nil
	})
}

// GetProduct returns a single published product by slug. Draft slugs
// answer 404 exactly like unknown ones.
func (c *Catalog) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	c.serveCached(w, r, cache.ProductKey(slug), func(ctx context.Context) (any, int, error) {
		product, err := c.products.FindBySlug(ctx, slug)
		if err != nil {
			return nil, 0, err
		}
		if product == nil {
			return nil, http.StatusNotFound, nil
		}
		return product, http.StatusOK, nil
	})
}

// ListBundles returns all published bundles.
func (c *Catalog) ListBundles(w http.ResponseWriter, r *http.Request) {
	c.serveCached(w, r, cache.BundleListKey(), func(ctx context.Context) (any, int, error) {
		bundles, err := c.bundles.ListPublished(ctx)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"bundles": bundles}, http.StatusOK, nil
	})
}

// GetBundle returns a single published bundle by slug.
func (c *Catalog) GetBundle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	c.serveCached(w, r, cache.BundleKey(slug), func(ctx context.Context) (any, int, error) {
		bundle, err := c.bundles.FindBySlug(ctx, slug)
		if err != nil {
			return nil, 0, err
		}
		if bundle == nil {
			return nil, http.StatusNotFound, nil
		}
		return bundle, http.StatusOK, nil
	})
}
