package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
	"prepkit/internal/store"
)

// BundleStore is the in-memory bundle repository view.
type BundleStore struct {
	d *data
}

func copyBundle(b models.Bundle) models.Bundle {
	out := b
	out.ProductIDs = append([]uuid.UUID(nil), b.ProductIDs...)
	if b.PublishedAt != nil {
		t := *b.PublishedAt
		out.PublishedAt = &t
	}
	if b.DiscountPercentage != nil {
		d := *b.DiscountPercentage
		out.DiscountPercentage = &d
	}
	return out
}

// ListPublished returns bundles with a publish timestamp, in insertion
// order.
func (s *BundleStore) ListPublished(ctx context.Context) ([]models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	var items []models.Bundle
	for _, b := range s.d.bundles {
		if b.IsPublished() {
			items = append(items, copyBundle(b))
		}
	}
	return items, nil
}

// ListAll returns every bundle regardless of publish state.
func (s *BundleStore) ListAll(ctx context.Context) ([]models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	items := make([]models.Bundle, 0, len(s.d.bundles))
	for _, b := range s.d.bundles {
		items = append(items, copyBundle(b))
	}
	return items, nil
}

// FindBySlug returns the first published bundle with the given slug.
func (s *BundleStore) FindBySlug(ctx context.Context, slug string) (*models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, b := range s.d.bundles {
		if b.Slug == slug && b.IsPublished() {
			out := copyBundle(b)
			return &out, nil
		}
	}
	return nil, nil
}

// FindByID returns the bundle with the given id in any publish state.
func (s *BundleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, b := range s.d.bundles {
		if b.ID == id {
			out := copyBundle(b)
			return &out, nil
		}
	}
	return nil, nil
}

// Create assigns a fresh id, stamps timestamps, and appends the bundle.
// Slugs are unique across all bundles regardless of publish state.
func (s *BundleStore) Create(ctx context.Context, b *models.Bundle) (*models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, existing := range s.d.bundles {
		if existing.Slug == b.Slug {
			return nil, fmt.Errorf("create bundle: slug %q already exists", b.Slug)
		}
	}

	created := copyBundle(*b)
	created.ID = uuid.New()
	now := s.d.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.d.bundles = append(s.d.bundles, created)

	out := copyBundle(created)
	return &out, nil
}

// Update merges the set patch fields over the existing record and
// refreshes updated_at. Returns store.ErrNotFound when the id is absent.
func (s *BundleStore) Update(ctx context.Context, id uuid.UUID, patch store.BundleUpdate) (*models.Bundle, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for i := range s.d.bundles {
		if s.d.bundles[i].ID != id {
			continue
		}
		b := &s.d.bundles[i]
		if patch.Name != nil {
			b.Name = *patch.Name
		}
		if patch.Slug != nil {
			for _, other := range s.d.bundles {
				if other.ID != id && other.Slug == *patch.Slug {
					return nil, fmt.Errorf("update bundle: slug %q already exists", *patch.Slug)
				}
			}
			b.Slug = *patch.Slug
		}
		if patch.Price != nil {
			b.Price = *patch.Price
		}
		if patch.Description != nil {
			b.Description = *patch.Description
		}
		if patch.ProductIDs != nil {
			b.ProductIDs = append([]uuid.UUID(nil), (*patch.ProductIDs)...)
		}
		if patch.Status != nil {
			b.Status = *patch.Status
		}
		if patch.DiscountPercentage != nil {
			d := *patch.DiscountPercentage
			b.DiscountPercentage = &d
		}
		if patch.IsFeatured != nil {
			b.IsFeatured = *patch.IsFeatured
		}
		if patch.Unpublish {
			b.PublishedAt = nil
		} else if patch.PublishedAt != nil {
			t := *patch.PublishedAt
			b.PublishedAt = &t
		}
		b.UpdatedAt = s.d.now()

		out := copyBundle(*b)
		return &out, nil
	}
	return nil, store.ErrNotFound
}

// Delete removes the bundle. Returns store.ErrNotFound when the id is
// absent.
func (s *BundleStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.d.wait(ctx); err != nil {
		return err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for i := range s.d.bundles {
		if s.d.bundles[i].ID == id {
			s.d.bundles = append(s.d.bundles[:i], s.d.bundles[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
