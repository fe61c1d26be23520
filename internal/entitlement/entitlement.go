// Package entitlement decides whether a user may access paid content.
// The resolver composes the purchase ledger with the bundle catalog:
// a product is accessible when it was bought directly or when any
// completed bundle purchase contains it.
//
// Access checks never fail open. A storage error is logged and the
// check answers false, so a flaky backend can only ever deny access,
// not grant it.
package entitlement

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"prepkit/internal/models"
)

// Ledger is the slice of the purchase store the resolver needs.
// All three methods consider completed purchases only.
type Ledger interface {
	IsProductPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	IsBundlePurchased(ctx context.Context, userID, bundleID uuid.UUID) (bool, error)
	PurchasedBundleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// BundleCatalog resolves bundle ids to their product membership.
type BundleCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
}

// Resolver answers access questions for products and bundles.
type Resolver struct {
	ledger  Ledger
	bundles BundleCatalog
}

// NewResolver creates a Resolver over the given ledger and bundle catalog.
func NewResolver(ledger Ledger, bundles BundleCatalog) *Resolver {
	return &Resolver{ledger: ledger, bundles: bundles}
}

// HasProductAccess reports whether user may access the product. Access
// comes from a direct completed purchase or from any completed bundle
// purchase whose bundle contains the product. A nil user (guest) never
// has access.
func (r *Resolver) HasProductAccess(ctx context.Context, user *models.User, productID uuid.UUID) bool {
	if user == nil {
		return false
	}

	direct, err := r.ledger.IsProductPurchased(ctx, user.ID, productID)
	if err != nil {
		slog.Error("entitlement: product purchase check failed",
			"user_id", user.ID, "product_id", productID, "error", err)
		return false
	}
	if direct {
		return true
	}

	bundleIDs, err := r.ledger.PurchasedBundleIDs(ctx, user.ID)
	if err != nil {
		slog.Error("entitlement: purchased bundles lookup failed",
			"user_id", user.ID, "error", err)
		return false
	}

	for _, bundleID := range bundleIDs {
		bundle, err := r.bundles.FindByID(ctx, bundleID)
		if err != nil {
			slog.Error("entitlement: bundle lookup failed",
				"user_id", user.ID, "bundle_id", bundleID, "error", err)
			return false
		}
		// A purchased bundle that was since deleted grants nothing.
		if bundle == nil {
			continue
		}
		if bundle.Contains(productID) {
			return true
		}
	}

	return false
}

// HasBundleAccess reports whether user has a completed purchase of the
// bundle itself. Owning every product in a bundle separately does not
// count as owning the bundle.
func (r *Resolver) HasBundleAccess(ctx context.Context, user *models.User, bundleID uuid.UUID) bool {
	if user == nil {
		return false
	}

	owned, err := r.ledger.IsBundlePurchased(ctx, user.ID, bundleID)
	if err != nil {
		slog.Error("entitlement: bundle purchase check failed",
			"user_id", user.ID, "bundle_id", bundleID, "error", err)
		return false
	}
	return owned
}
