package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepkit/internal/entitlement"
	"prepkit/internal/metrics"
	"prepkit/internal/middleware"
	"prepkit/internal/models"
)

// Entitlements exposes the access checks the front end uses to decide
// whether to show "start exam" or "buy now". Guests always read
// granted=false; the endpoints never error on storage trouble because
// the resolver converts failures to denials.
type Entitlements struct {
	resolver *entitlement.Resolver
	metrics  *metrics.Metrics
}

// NewEntitlements creates a new Entitlements handler group.
func NewEntitlements(resolver *entitlement.Resolver, m *metrics.Metrics) *Entitlements {
	return &Entitlements{resolver: resolver, metrics: m}
}

// entitlementResponse is the body for both check endpoints.
type entitlementResponse struct {
	Granted bool `json:"granted"`
}

// sessionUser builds the resolver's user view from the session, or nil
// for guests.
func sessionUser(r *http.Request) *models.User {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return nil
	}
	return &models.User{ID: sess.UserID, Email: sess.Email, Role: models.Role(sess.Role)}
}

// CheckProduct answers whether the current user may access the product.
func (e *Entitlements) CheckProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	granted := e.resolver.HasProductAccess(r.Context(), sessionUser(r), id)
	if e.metrics != nil {
		e.metrics.RecordEntitlementCheck("product", granted)
	}

	respondJSON(w, http.StatusOK, entitlementResponse{Granted: granted})
}

// CheckBundle answers whether the current user owns the bundle itself.
func (e *Entitlements) CheckBundle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bundle id")
		return
	}

	granted := e.resolver.HasBundleAccess(r.Context(), sessionUser(r), id)
	if e.metrics != nil {
		e.metrics.RecordEntitlementCheck("bundle", granted)
	}

	respondJSON(w, http.StatusOK, entitlementResponse{Granted: granted})
}
