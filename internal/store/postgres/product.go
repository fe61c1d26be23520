// Package postgres implements the store interfaces on PostgreSQL.
// Each store struct wraps a *sql.DB and exposes typed query methods.
// List-type columns (question ids, bundle product ids) are stored as
// JSONB and decoded on scan.
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

const productColumns = `
	id, name, slug, price_amount, price_currency, description, type,
	question_ids, status, is_featured, published_at, created_at, updated_at`

// ProductStore handles all product-related database operations.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	var questionIDs []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Price.Amount, &p.Price.Currency,
		&p.Description, &p.Type, &questionIDs, &p.Status, &p.IsFeatured,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionIDs, &p.QuestionIDs); err != nil {
		return nil, fmt.Errorf("decode question ids: %w", err)
	}
	return p, nil
}

// ListPublished returns all products with a publish timestamp, in
// insertion order.
func (s *ProductStore) ListPublished(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE published_at IS NOT NULL
		ORDER BY created_at ASC
	`)
}

// ListAll returns every product regardless of publish state, for
// administrative views.
func (s *ProductStore) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at ASC
	`)
}

func (s *ProductStore) list(ctx context.Context, query string) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a published product by its slug. Unpublished
// products are invisible here even when the slug matches. Returns nil
// if not found.
func (s *ProductStore) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE slug = $1 AND published_at IS NOT NULL
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return p, nil
}

// FindByID retrieves a product by its internal id in any publish state.
// Returns nil if not found.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// Create inserts a new product and returns it with the generated id and
// timestamps.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	questionIDs, err := json.Marshal(emptyIfNilStrings(p.QuestionIDs))
	if err != nil {
		return nil, fmt.Errorf("encode question ids: %w", err)
	}

	created, err := scanProduct(s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, slug, price_amount, price_currency,
		                      description, type, question_ids, status,
		                      is_featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		p.Name, p.Slug, p.Price.Amount, p.Price.Currency, p.Description,
		p.Type, questionIDs, p.Status, p.IsFeatured, p.PublishedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update merges the set patch fields over the existing record and
// refreshes updated_at. Returns store.ErrNotFound when the id is absent.
func (s *ProductStore) Update(ctx context.Context, id uuid.UUID, patch store.ProductUpdate) (*models.Product, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, store.ErrNotFound
	}

	applyProductUpdate(existing, patch)

	questionIDs, err := json.Marshal(emptyIfNilStrings(existing.QuestionIDs))
	if err != nil {
		return nil, fmt.Errorf("encode question ids: %w", err)
	}

	updated, err := scanProduct(s.db.QueryRowContext(ctx, `
		UPDATE products SET
			name = $1, slug = $2, price_amount = $3, price_currency = $4,
			description = $5, type = $6, question_ids = $7, status = $8,
			is_featured = $9, published_at = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+productColumns,
		existing.Name, existing.Slug, existing.Price.Amount, existing.Price.Currency,
		existing.Description, existing.Type, questionIDs, existing.Status,
		existing.IsFeatured, existing.PublishedAt, id,
	))
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product by id. Returns store.ErrNotFound when the id
// is absent.
func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// applyProductUpdate merges the set patch fields into p.
func applyProductUpdate(p *models.Product, patch store.ProductUpdate) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Slug != nil {
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
		p.QuestionIDs = *patch.QuestionIDs
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
		p.PublishedAt = patch.PublishedAt
	}
}

// emptyIfNilStrings keeps JSONB columns as [] instead of null.
func emptyIfNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
