package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
	"prepkit/internal/store"
)

// ProductStore is the in-memory product repository view.
type ProductStore struct {
	d *data
}

func copyProduct(p models.Product) models.Product {
	out := p
	out.QuestionIDs = append([]string(nil), p.QuestionIDs...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// ListPublished returns products with a publish timestamp, in insertion
// order.
func (s *ProductStore) ListPublished(ctx context.Context) ([]models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	var items []models.Product
	for _, p := range s.d.products {
		if p.IsPublished() {
			items = append(items, copyProduct(p))
		}
	}
	return items, nil
}

// ListAll returns every product regardless of publish state.
func (s *ProductStore) ListAll(ctx context.Context) ([]models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	items := make([]models.Product, 0, len(s.d.products))
	for _, p := range s.d.products {
		items = append(items, copyProduct(p))
	}
	return items, nil
}

// FindBySlug returns the first published product with the given slug.
// Unpublished products are invisible here even when the slug matches.
func (s *ProductStore) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, p := range s.d.products {
		if p.Slug == slug && p.IsPublished() {
			out := copyProduct(p)
			return &out, nil
		}
	}
	return nil, nil
}

// FindByID returns the product with the given id in any publish state.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, p := range s.d.products {
		if p.ID == id {
			out := copyProduct(p)
			return &out, nil
		}
	}
	return nil, nil
}

// Create assigns a fresh id, stamps timestamps, and appends the product.
// Slugs are unique across all products regardless of publish state.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, existing := range s.d.products {
		if existing.Slug == p.Slug {
			return nil, fmt.Errorf("create product: slug %q already exists", p.Slug)
		}
	}

	created := copyProduct(*p)
	created.ID = uuid.New()
	now := s.d.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.d.products = append(s.d.products, created)

	out := copyProduct(created)
	return &out, nil
}

// Update merges the set patch fields over the existing record and
// refreshes updated_at. Returns store.ErrNotFound when the id is absent.
func (s *ProductStore) Update(ctx context.Context, id uuid.UUID, patch store.ProductUpdate) (*models.Product, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for i := range s.d.products {
		if s.d.products[i].ID != id {
			continue
		}
		p := &s.d.products[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Slug != nil {
			for _, other := range s.d.products {
				if other.ID != id && other.Slug == *patch.Slug {
					return nil, fmt.Errorf("update product: slug %q already exists", *patch.Slug)
				}
			}
			p.Slug = *patch.Slug
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Type != nil {
			p.Type = *patch.Type
		}
		if patch.QuestionIDs != nil {
			p.QuestionIDs = append([]string(nil), (*patch.QuestionIDs)...)
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.IsFeatured != nil {
			p.IsFeatured = *patch.IsFeatured
		}
		if patch.Unpublish {
			p.PublishedAt = nil
		} else if patch.PublishedAt != nil {
			t := *patch.PublishedAt
			p.PublishedAt = &t
		}
		p.UpdatedAt = s.d.now()

		out := copyProduct(*p)
		return &out, nil
	}
	return nil, store.ErrNotFound
}

// Delete removes the product. Returns store.ErrNotFound when the id is
// absent.
func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.d.wait(ctx); err != nil {
		return err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for i := range s.d.products {
		if s.d.products[i].ID == id {
			s.d.products = append(s.d.products[:i], s.d.products[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
