package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
	"prepkit/internal/store"
)

const bundleColumns = `
	id, name, slug, price_amount, price_currency, description,
	product_ids, status, discount_percentage, is_featured,
	published_at, created_at, updated_at`

// BundleStore handles all bundle-related database operations.
type BundleStore struct {
	db *sql.DB
}

// NewBundleStore creates a new BundleStore with the given database connection.
func NewBundleStore(db *sql.DB) *BundleStore {
	return &BundleStore{db: db}
}

func scanBundle(row interface{ Scan(...any) error }) (*models.Bundle, error) {
	b := &models.Bundle{}
	var productIDs []byte
	err := row.Scan(
		&b.ID, &b.Name, &b.Slug, &b.Price.Amount, &b.Price.Currency,
		&b.Description, &productIDs, &b.Status, &b.DiscountPercentage,
		&b.IsFeatured, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(productIDs, &b.ProductIDs); err != nil {
		return nil, fmt.Errorf("decode product ids: %w", err)
	}
	return b, nil
}

// ListPublished returns all bundles with a publish timestamp, in
// insertion order.
func (s *BundleStore) ListPublished(ctx context.Context) ([]models.Bundle, error) {
	return s.list(ctx, `
		SELECT `+bundleColumns+`
		FROM bundles
		WHERE published_at IS NOT NULL
		ORDER BY created_at ASC
	`)
}

// ListAll returns every bundle regardless of publish state.
func (s *BundleStore) ListAll(ctx context.Context) ([]models.Bundle, error) {
	return s.list(ctx, `
		SELECT `+bundleColumns+`
		FROM bundles
		ORDER BY created_at ASC
	`)
}

func (s *BundleStore) list(ctx context.Context, query string) ([]models.Bundle, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var items []models.Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a published bundle by its slug. Returns nil if
// not found.
func (s *BundleStore) FindBySlug(ctx context.Context, slug string) (*models.Bundle, error) {
	b, err := scanBundle(s.db.QueryRowContext(ctx, `
		SELECT `+bundleColumns+`
		FROM bundles WHERE slug = $1 AND published_at IS NOT NULL
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bundle by slug: %w", err)
	}
	return b, nil
}

// FindByID retrieves a bundle by its internal id in any publish state.
// Returns nil if not found.
func (s *BundleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	b, err := scanBundle(s.db.QueryRowContext(ctx, `
		SELECT `+bundleColumns+`
		FROM bundles WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bundle by id: %w", err)
	}
	return b, nil
}

// Create inserts a new bundle and returns it with the generated id and
// timestamps.
func (s *BundleStore) Create(ctx context.Context, b *models.Bundle) (*models.Bundle, error) {
	productIDs, err := json.Marshal(emptyIfNilIDs(b.ProductIDs))
	if err != nil {
		return nil, fmt.Errorf("encode product ids: %w", err)
	}

	created, err := scanBundle(s.db.QueryRowContext(ctx, `
		INSERT INTO bundles (name, slug, price_amount, price_currency,
		                     description, product_ids, status,
		                     discount_percentage, is_featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+bundleColumns,
		b.Name, b.Slug, b.Price.Amount, b.Price.Currency, b.Description,
		productIDs, b.Status, b.DiscountPercentage, b.IsFeatured, b.PublishedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}
	return created, nil
}

// Update merges the set patch fields over the existing record and
// refreshes updated_at. Returns store.ErrNotFound when the id is absent.
func (s *BundleStore) Update(ctx context.Context, id uuid.UUID, patch store.BundleUpdate) (*models.Bundle, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, store.ErrNotFound
	}

	applyBundleUpdate(existing, patch)

	productIDs, err := json.Marshal(emptyIfNilIDs(existing.ProductIDs))
	if err != nil {
		return nil, fmt.Errorf("encode product ids: %w", err)
	}

	updated, err := scanBundle(s.db.QueryRowContext(ctx, `
		UPDATE bundles SET
			name = $1, slug = $2, price_amount = $3, price_currency = $4,
			description = $5, product_ids = $6, status = $7,
			discount_percentage = $8, is_featured = $9, published_at = $10,
			updated_at = NOW()
		WHERE id = $11
		RETURNING `+bundleColumns,
		existing.Name, existing.Slug, existing.Price.Amount, existing.Price.Currency,
		existing.Description, productIDs, existing.Status,
		existing.DiscountPercentage, existing.IsFeatured, existing.PublishedAt, id,
	))
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update bundle: %w", err)
	}
	return updated, nil
}

// Delete removes a bundle by id. Returns store.ErrNotFound when the id
// is absent.
func (s *BundleStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func applyBundleUpdate(b *models.Bundle, patch store.BundleUpdate) {
	if patch.Name != nil {
		b.Name = *patch.Name
	}
	if patch.Slug != nil {
		b.Slug = *patch.Slug
	}
	if patch.Price != nil {
		b.Price = *patch.Price
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.ProductIDs != nil {
		b.ProductIDs = *patch.ProductIDs
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.DiscountPercentage != nil {
		b.DiscountPercentage = patch.DiscountPercentage
	}
	if patch.IsFeatured != nil {
		b.IsFeatured = *patch.IsFeatured
	}
	if patch.Unpublish {
		b.PublishedAt = nil
	} else if patch.PublishedAt != nil {
		b.PublishedAt = patch.PublishedAt
	}
}

func emptyIfNilIDs(in []uuid.UUID) []uuid.UUID {
	if in == nil {
		return []uuid.UUID{}
	}
	return in
}
