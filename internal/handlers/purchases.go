package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"prepkit/internal/metrics"
	"prepkit/internal/middleware"
	"prepkit/internal/models"
	"prepkit/internal/store"
)

// Purchases groups the checkout and purchase history handlers. All
// routes require an authenticated session.
type Purchases struct {
	purchases store.PurchaseStore
	products  store.ProductStore
	bundles   store.BundleStore
	metrics   *metrics.Metrics
}

// NewPurchases creates a new Purchases handler group.
func NewPurchases(purchases store.PurchaseStore, products store.ProductStore, bundles store.BundleStore, m *metrics.Metrics) *Purchases {
	return &Purchases{purchases: purchases, products: products, bundles: bundles, metrics: m}
}

// checkoutRequest targets exactly one of product or bundle.
type checkoutRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	BundleID  *uuid.UUID `json:"bundle_id"`
}

// Checkout records a completed purchase of a published product or
// bundle for the authenticated user. Payment capture happens upstream;
// this endpoint writes the ledger row that entitlements are derived
// from.
func (p *Purchases) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if (req.ProductID == nil) == (req.BundleID == nil) {
		respondError(w, http.StatusBadRequest, "exactly one of product_id or bundle_id is required")
		return
	}

	purchase := &models.Purchase{
		UserID: sess.UserID,
		Status: models.PurchaseStatusCompleted,
	}
	var kind string

	// Resolve the target and its price. Unpublished targets are not for
	// sale and answer 404 like unknown ids.
	switch {
	case req.ProductID != nil:
		product, err := p.products.FindByID(r.Context(), *req.ProductID)
		if err != nil {
			respondInternalError(w, "checkout product lookup failed", err)
			return
		}
		if product == nil || !product.IsPublished() {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		purchase.ProductID = &product.ID
		purchase.Amount = product.Price
		kind = "product"

	case req.BundleID != nil:
		bundle, err := p.bundles.FindByID(r.Context(), *req.BundleID)
		if err != nil {
			respondInternalError(w, "checkout bundle lookup failed", err)
			return
		}
		if bundle == nil || !bundle.IsPublished() {
			respondError(w, http.StatusNotFound, "bundle not found")
			return
		}
		purchase.BundleID = &bundle.ID
		purchase.Amount = bundle.Price
		kind = "bundle"
	}

	created, err := p.purchases.Create(r.Context(), purchase)
	if err != nil {
		respondInternalError(w, "checkout create failed", err)
		return
	}

	if p.metrics != nil {
		p.metrics.RecordPurchase(kind)
	}

	respondJSON(w, http.StatusCreated, created)
}

// ListMine returns the authenticated user's full purchase history,
// including pending and failed rows.
func (p *Purchases) ListMine(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	purchases, err := p.purchases.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		respondInternalError(w, "purchase list failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}
