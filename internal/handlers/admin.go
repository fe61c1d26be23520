package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepkit/internal/cache"
	"prepkit/internal/models"
	"prepkit/internal/slug"
	"prepkit/internal/store"
)

// Admin groups the back-office handlers. The router guards every route
// here with authentication, a completed second factor, and a role
// check; handlers assume an authorized staff session.
type Admin struct {
	products  store.ProductStore
	bundles   store.BundleStore
	purchases store.PurchaseStore
	users     store.UserStore
	cache     *cache.CatalogCache
}

// NewAdmin creates a new Admin handler group. cache may be nil.
func NewAdmin(products store.ProductStore, bundles store.BundleStore, purchases store.PurchaseStore, users store.UserStore, cc *cache.CatalogCache) *Admin {
	return &Admin{products: products, bundles: bundles, purchases: purchases, users: users, cache: cc}
}

// parseID reads the {id} URL parameter. Writes a 400 and returns false
// on malformed input.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// ---- Products ----

// productCreateRequest carries a new product. A missing slug is derived
// from the name; published controls the initial publish timestamp.
type productCreateRequest struct {
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Price       models.Money       `json:"price"`
	Description string             `json:"description"`
	Type        models.ProductType `json:"type"`
	QuestionIDs []string           `json:"question_ids"`
	Status      string             `json:"status"`
	IsFeatured  bool               `json:"is_featured"`
	Published   bool               `json:"published"`
}

// productUpdateRequest is a partial update; nil fields stay untouched.
// Publish stamps a publish time now, Unpublish clears it.
type productUpdateRequest struct {
	Name        *string             `json:"name"`
	Slug        *string             `json:"slug"`
	Price       *models.Money       `json:"price"`
	Description *string             `json:"description"`
	Type        *models.ProductType `json:"type"`
	QuestionIDs *[]string           `json:"question_ids"`
	Status      *string             `json:"status"`
	IsFeatured  *bool               `json:"is_featured"`
	Publish     bool                `json:"publish"`
	Unpublish   bool                `json:"unpublish"`
}

// ProductsList returns every product including drafts.
func (a *Admin) ProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := a.products.ListAll(r.Context())
	if err != nil {
		respondInternalError(w, "admin product list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

// ProductGet returns one product by id in any publish state.
func (a *Admin) ProductGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	product, err := a.products.FindByID(r.Context(), id)
	if err != nil {
		respondInternalError(w, "admin product lookup failed", err)
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// ProductCreate persists a new product.
func (a *Admin) ProductCreate(w http.ResponseWriter, r *http.Request) {
	var req productCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Slug == "" {
		req.Slug = slug.Generate(req.Name)
	}
	if msg := validateProduct(req.Name, req.Slug, req.Price, req.Type); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	status := models.CatalogStatus(req.Status)
	if req.Status == "" {
		status = models.CatalogStatusDraft
	}

	product := &models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Price:       req.Price,
		Description: req.Description,
		Type:        req.Type,
		QuestionIDs: req.QuestionIDs,
		Status:      status,
		IsFeatured:  req.IsFeatured,
	}
	if req.Published {
		now := time.Now()
		product.PublishedAt = &now
	}

	created, err := a.products.Create(r.Context(), product)
	if err != nil {
		respondInternalError(w, "admin product create failed", err)
		return
	}

	a.invalidateProducts(r)
	respondJSON(w, http.StatusCreated, created)
}

// ProductUpdate applies a partial update.
func (a *Admin) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req productUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Publish && req.Unpublish {
		respondError(w, http.StatusBadRequest, "publish and unpublish are mutually exclusive")
		return
	}

	patch := store.ProductUpdate{
		Name:        req.Name,
		Slug:        req.Slug,
		Price:       req.Price,
		Description: req.Description,
		Type:        req.Type,
		QuestionIDs: req.QuestionIDs,
		IsFeatured:  req.IsFeatured,
		Unpublish:   req.Unpublish,
	}
	if req.Status != nil {
		status := models.CatalogStatus(*req.Status)
		patch.Status = &status
	}
	if req.Publish {
		now := time.Now()
		patch.PublishedAt = &now
	}

	updated, err := a.products.Update(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondInternalError(w, "admin product update failed", err)
		return
	}

	a.invalidateProducts(r)
	respondJSON(w, http.StatusOK, updated)
}

// ProductDelete removes a product.
func (a *Admin) ProductDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.products.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondInternalError(w, "admin product delete failed", err)
		return
	}

	a.invalidateProducts(r)
	respondJSON(w, http.StatusNoContent, nil)
}

// ---- Bundles ----

type bundleCreateRequest struct {
	Name               string       `json:"name"`
	Slug               string       `json:"slug"`
	Price              models.Money `json:"price"`
	Description        string       `json:"description"`
	ProductIDs         []uuid.UUID  `json:"product_ids"`
	Status             string       `json:"status"`
	DiscountPercentage *int         `json:"discount_percentage"`
	IsFeatured         bool         `json:"is_featured"`
	Published          bool         `json:"published"`
}

type bundleUpdateRequest struct {
	Name               *string       `json:"name"`
	Slug               *string       `json:"slug"`
	Price              *models.Money `json:"price"`
	Description        *string       `json:"description"`
	ProductIDs         *[]uuid.UUID  `json:"product_ids"`
	Status             *string       `json:"status"`
	DiscountPercentage *int          `json:"discount_percentage"`
	IsFeatured         *bool         `json:"is_featured"`
	Publish            bool          `json:"publish"`
	Unpublish          bool          `json:"unpublish"`
}

// checkBundleProducts verifies every referenced product exists. A bundle
// must never point at ids the catalog cannot resolve.
func (a *Admin) checkBundleProducts(r *http.Request, ids []uuid.UUID) (string, error) {
	for _, id := range ids {
		product, err := a.products.FindByID(r.Context(), id)
		if err != nil {
			return "", err
		}
		if product == nil {
			return "Bundle references unknown product " + id.String() + ".", nil
		}
	}
	return "", nil
}

// BundlesList returns every bundle including drafts.
func (a *Admin) BundlesList(w http.ResponseWriter, r *http.Request) {
	bundles, err := a.bundles.ListAll(r.Context())
	if err != nil {
		respondInternalError(w, "admin bundle list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"bundles": bundles})
}

// BundleGet returns one bundle by id in any publish state.
func (a *Admin) BundleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	bundle, err := a.bundles.FindByID(r.Context(), id)
	if err != nil {
		respondInternalError(w, "admin bundle lookup failed", err)
		return
	}
	if bundle == nil {
		respondError(w, http.StatusNotFound, "bundle not found")
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

// BundleCreate persists a new bundle after checking its product refs.
func (a *Admin) BundleCreate(w http.ResponseWriter, r *http.Request) {
	var req bundleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Slug == "" {
		req.Slug = slug.Generate(req.Name)
	}
	if msg := validateBundle(req.Name, req.Slug, req.Price, len(req.ProductIDs), req.DiscountPercentage); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	msg, err := a.checkBundleProducts(r, req.ProductIDs)
	if err != nil {
		respondInternalError(w, "admin bundle product check failed", err)
		return
	}
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	status := models.CatalogStatus(req.Status)
	if req.Status == "" {
		status = models.CatalogStatusDraft
	}

	bundle := &models.Bundle{
		Name:               req.Name,
		Slug:               req.Slug,
		Price:              req.Price,
		Description:        req.Description,
		ProductIDs:         req.ProductIDs,
		Status:             status,
		DiscountPercentage: req.DiscountPercentage,
		IsFeatured:         req.IsFeatured,
	}
	if req.Published {
		now := time.Now()
		bundle.PublishedAt = &now
	}

	created, err := a.bundles.Create(r.Context(), bundle)
	if err != nil {
		respondInternalError(w, "admin bundle create failed", err)
		return
	}

	a.invalidateBundles(r)
	respondJSON(w, http.StatusCreated, created)
}

// BundleUpdate applies a partial update after checking any new product refs.
func (a *Admin) BundleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req bundleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Publish && req.Unpublish {
		respondError(w, http.StatusBadRequest, "publish and unpublish are mutually exclusive")
		return
	}
	if req.DiscountPercentage != nil && (*req.DiscountPercentage < 0 || *req.DiscountPercentage > 100) {
		respondError(w, http.StatusBadRequest, "Discount percentage must be between 0 and 100.")
		return
	}

	if req.ProductIDs != nil {
		if len(*req.ProductIDs) == 0 {
			respondError(w, http.StatusBadRequest, "A bundle needs at least one product.")
			return
		}
		msg, err := a.checkBundleProducts(r, *req.ProductIDs)
		if err != nil {
			respondInternalError(w, "admin bundle product check failed", err)
			return
		}
		if msg != "" {
			respondError(w, http.StatusBadRequest, msg)
			return
		}
	}

	patch := store.BundleUpdate{
		Name:               req.Name,
		Slug:               req.Slug,
		Price:              req.Price,
		Description:        req.Description,
		ProductIDs:         req.ProductIDs,
		DiscountPercentage: req.DiscountPercentage,
		IsFeatured:         req.IsFeatured,
		Unpublish:          req.Unpublish,
	}
	if req.Status != nil {
		status := models.CatalogStatus(*req.Status)
		patch.Status = &status
	}
	if req.Publish {
		now := time.Now()
		patch.PublishedAt = &now
	}

	updated, err := a.bundles.Update(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "bundle not found")
		return
	}
	if err != nil {
		respondInternalError(w, "admin bundle update failed", err)
		return
	}

	a.invalidateBundles(r)
	respondJSON(w, http.StatusOK, updated)
}

// BundleDelete removes a bundle. Past purchases of it remain in the
// ledger; the entitlement resolver skips bundles the catalog no longer
// resolves.
func (a *Admin) BundleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.bundles.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "bundle not found")
		return
	}
	if err != nil {
		respondInternalError(w, "admin bundle delete failed", err)
		return
	}

	a.invalidateBundles(r)
	respondJSON(w, http.StatusNoContent, nil)
}

// ---- Purchases ----

// PurchasesList returns the full ledger.
func (a *Admin) PurchasesList(w http.ResponseWriter, r *http.Request) {
	purchases, err := a.purchases.ListAll(r.Context())
	if err != nil {
		respondInternalError(w, "admin purchase list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

// ---- Users ----

type userCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UsersList returns every account.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		respondInternalError(w, "admin user list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// UserCreate adds an account with the given role.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !models.ValidRole(models.Role(req.Role)) {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}

	created, err := a.users.Create(r.Context(), req.Email, req.Password, req.Name, models.Role(req.Role))
	if err != nil {
		respondInternalError(w, "admin user create failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// UserResetTOTP clears a user's second factor so they can re-enroll.
func (a *Admin) UserResetTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := a.users.ResetTOTP(r.Context(), id); err != nil {
		respondInternalError(w, "admin totp reset failed", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *Admin) invalidateProducts(r *http.Request) {
	if a.cache != nil {
		a.cache.InvalidateProducts(r.Context())
	}
}

func (a *Admin) invalidateBundles(r *http.Request) {
	if a.cache != nil {
		a.cache.InvalidateBundles(r.Context())
	}
}
