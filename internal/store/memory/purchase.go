package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
)

// PurchaseStore is the in-memory purchase ledger view. Rows are
// append-only; there is no update or delete path.
type PurchaseStore struct {
	d *data
}

func copyPurchase(p models.Purchase) models.Purchase {
	out := p
	if p.ProductID != nil {
		id := *p.ProductID
		out.ProductID = &id
	}
	if p.BundleID != nil {
		id := *p.BundleID
		out.BundleID = &id
	}
	return out
}

// ListByUser returns all purchases for the user in insertion order.
func (s *PurchaseStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	var items []models.Purchase
	for _, p := range s.d.purchases {
		if p.UserID == userID {
			items = append(items, copyPurchase(p))
		}
	}
	return items, nil
}

// ListAll returns the full ledger in insertion order.
func (s *PurchaseStore) ListAll(ctx context.Context) ([]models.Purchase, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	items := make([]models.Purchase, 0, len(s.d.purchases))
	for _, p := range s.d.purchases {
		items = append(items, copyPurchase(p))
	}
	return items, nil
}

// Create assigns a fresh id, stamps purchase_date, and appends the row.
// Exactly one of ProductID/BundleID must be set.
func (s *PurchaseStore) Create(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	if _, _, ok := p.Target(); !ok {
		return nil, fmt.Errorf("create purchase: exactly one of product_id and bundle_id must be set")
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	created := copyPurchase(*p)
	created.ID = uuid.New()
	created.PurchaseDate = s.d.now()
	s.d.purchases = append(s.d.purchases, created)

	out := copyPurchase(created)
	return &out, nil
}

// IsProductPurchased reports whether the user has a completed purchase
// of the product. Pending and failed purchases never count.
func (s *PurchaseStore) IsProductPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if err := s.d.wait(ctx); err != nil {
		return false, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, p := range s.d.purchases {
		if p.UserID == userID && p.ProductID != nil && *p.ProductID == productID && p.Grants() {
			return true, nil
		}
	}
	return false, nil
}

// IsBundlePurchased reports whether the user has a completed purchase
// of the bundle.
func (s *PurchaseStore) IsBundlePurchased(ctx context.Context, userID, bundleID uuid.UUID) (bool, error) {
	if err := s.d.wait(ctx); err != nil {
		return false, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, p := range s.d.purchases {
		if p.UserID == userID && p.BundleID != nil && *p.BundleID == bundleID && p.Grants() {
			return true, nil
		}
	}
	return false, nil
}

// PurchasedBundleIDs returns the distinct bundle ids from the user's
// completed purchases.
func (s *PurchaseStore) PurchasedBundleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, p := range s.d.purchases {
		if p.UserID == userID && p.BundleID != nil && p.Grants() && !seen[*p.BundleID] {
			seen[*p.BundleID] = true
			ids = append(ids, *p.BundleID)
		}
	}
	return ids, nil
}
