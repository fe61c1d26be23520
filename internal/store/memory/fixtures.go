package memory

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
)

//go:embed fixtures
var fixtureFS embed.FS

// LoadFixtures replaces the catalog and ledger contents with the
// embedded JSON fixtures. Timestamps in the files are ISO-8601 strings
// and parse through encoding/json. The load validates the catalog
// invariants: unique slugs per collection and bundle product ids that
// reference existing products.
func (s *Store) LoadFixtures() error {
	var products []models.Product
	if err := loadFixture("fixtures/products.json", &products); err != nil {
		return err
	}

	var bundles []models.Bundle
	if err := loadFixture("fixtures/bundles.json", &bundles); err != nil {
		return err
	}

	var purchases []models.Purchase
	if err := loadFixture("fixtures/purchases.json", &purchases); err != nil {
		return err
	}

	productIDs := map[uuid.UUID]bool{}
	slugs := map[string]bool{}
	for _, p := range products {
		if slugs[p.Slug] {
			return fmt.Errorf("fixtures: duplicate product slug %q", p.Slug)
		}
		slugs[p.Slug] = true
		productIDs[p.ID] = true
	}

	bundleSlugs := map[string]bool{}
	for _, b := range bundles {
		if bundleSlugs[b.Slug] {
			return fmt.Errorf("fixtures: duplicate bundle slug %q", b.Slug)
		}
		bundleSlugs[b.Slug] = true
		for _, id := range b.ProductIDs {
			if !productIDs[id] {
				return fmt.Errorf("fixtures: bundle %q references unknown product %s", b.Slug, id)
			}
		}
	}

	for _, p := range purchases {
		if _, _, ok := p.Target(); !ok {
			return fmt.Errorf("fixtures: purchase %s must reference exactly one of product or bundle", p.ID)
		}
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.products = products
	s.d.bundles = bundles
	s.d.purchases = purchases
	return nil
}

func loadFixture(name string, dst any) error {
	raw, err := fixtureFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("fixtures: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("fixtures: decode %s: %w", name, err)
	}
	return nil
}
