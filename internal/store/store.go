// Package store defines the repository contracts for catalog, ledger,
// and account data. Services and handlers depend only on these
// interfaces; the backing store (PostgreSQL or the in-memory fixture
// store) is injected at startup, so swapping storage never touches
// entitlement or role logic.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"prepkit/internal/models"
)

// ErrNotFound is returned by Update and Delete when the target id does
// not exist. It indicates caller misuse and is surfaced, never swallowed.
var ErrNotFound = errors.New("store: not found")

// ProductStore provides access to the product side of the catalog.
// Find methods return (nil, nil) when no matching record exists.
type ProductStore interface {
	// ListPublished returns products with a publish timestamp, in
	// insertion order.
	ListPublished(ctx context.Context) ([]models.Product, error)

	// ListAll returns every product regardless of publish state, for
	// administrative views.
	ListAll(ctx context.Context) ([]models.Product, error)

	// FindBySlug returns the published product with the given slug.
	// Unpublished products are invisible to this lookup even when the
	// slug matches.
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)

	// FindByID returns the product with the given internal id in any
	// publish state.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)

	// Create assigns a fresh id, stamps created_at/updated_at, and
	// persists the product.
	Create(ctx context.Context, p *models.Product) (*models.Product, error)

	// Update merges the set fields of the patch over the existing
	// record and refreshes updated_at. Returns ErrNotFound when the id
	// is absent.
	Update(ctx context.Context, id uuid.UUID, patch ProductUpdate) (*models.Product, error)

	// Delete removes the product. Returns ErrNotFound when the id is
	// absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BundleStore provides access to the bundle side of the catalog, with
// the same visibility and not-found semantics as ProductStore.
type BundleStore interface {
	ListPublished(ctx context.Context) ([]models.Bundle, error)
	ListAll(ctx context.Context) ([]models.Bundle, error)
	FindBySlug(ctx context.Context, slug string) (*models.Bundle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	Create(ctx context.Context, b *models.Bundle) (*models.Bundle, error)
	Update(ctx context.Context, id uuid.UUID, patch BundleUpdate) (*models.Bundle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseStore is the purchase ledger. Rows are immutable after
// creation; there is no update or delete path.
type PurchaseStore interface {
	// ListByUser returns all purchases for the user in insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)

	// ListAll returns the full ledger, for administrative views.
	ListAll(ctx context.Context) ([]models.Purchase, error)

	// Create assigns a fresh id, stamps purchase_date, and appends the
	// row. Exactly one of ProductID/BundleID must be set.
	Create(ctx context.Context, p *models.Purchase) (*models.Purchase, error)

	// IsProductPurchased reports whether the user has a completed
	// purchase of the product.
	IsProductPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// IsBundlePurchased reports whether the user has a completed
	// purchase of the bundle.
	IsBundlePurchased(ctx context.Context, userID, bundleID uuid.UUID) (bool, error)

	// PurchasedBundleIDs returns the distinct bundle ids from the
	// user's completed purchases.
	PurchasedBundleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// UserStore provides account lookup and administration.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
}

// ProductUpdate is a partial product update. Nil fields are left
// untouched. Unpublish clears the publish timestamp; PublishedAt sets it.
type ProductUpdate struct {
	Name        *string
	Slug        *string
	Price       *models.Money
	Description *string
	Type        *models.ProductType
	QuestionIDs *[]string
	Status      *models.CatalogStatus
	IsFeatured  *bool
	PublishedAt *time.Time
	Unpublish   bool
}

// BundleUpdate is a partial bundle update with the same semantics as
// ProductUpdate.
type BundleUpdate struct {
	Name               *string
	Slug               *string
	Price              *models.Money
	Description        *string
	ProductIDs         *[]uuid.UUID
	Status             *models.CatalogStatus
	DiscountPercentage *int
	IsFeatured         *bool
	PublishedAt        *time.Time
	Unpublish          bool
}

// CheckPassword verifies a plaintext password against the user's stored
// bcrypt hash.
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
