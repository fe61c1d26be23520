package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"prepkit/internal/models"
)

const purchaseColumns = `
	id, user_id, product_id, bundle_id, purchase_date,
	amount_amount, amount_currency, status`

// PurchaseStore handles the purchase ledger. Rows are append-only.
type PurchaseStore struct {
	db *sql.DB
}

// NewPurchaseStore creates a new PurchaseStore with the given database connection.
func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(row interface{ Scan(...any) error }) (*models.Purchase, error) {
	p := &models.Purchase{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProductID, &p.BundleID, &p.PurchaseDate,
		&p.Amount.Amount, &p.Amount.Currency, &p.Status,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByUser returns all purchases for the user in insertion order.
func (s *PurchaseStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return s.list(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE user_id = $1
		ORDER BY purchase_date ASC
	`, userID)
}

// ListAll returns the full ledger, for administrative views.
func (s *PurchaseStore) ListAll(ctx context.Context) ([]models.Purchase, error) {
	return s.list(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		ORDER BY purchase_date ASC
	`)
}

func (s *PurchaseStore) list(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var items []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Create appends a ledger row with a fresh id and the current purchase
// date. Exactly one of ProductID/BundleID must be set; the database
// check constraint backs up the validation here.
func (s *PurchaseStore) Create(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if _, _, ok := p.Target(); !ok {
		return nil, fmt.Errorf("create purchase: exactly one of product_id and bundle_id must be set")
	}

	created, err := scanPurchase(s.db.QueryRowContext(ctx, `
		INSERT INTO purchases (user_id, product_id, bundle_id,
		                       amount_amount, amount_currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+purchaseColumns,
		p.UserID, p.ProductID, p.BundleID,
		p.Amount.Amount, p.Amount.Currency, p.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	return created, nil
}

// IsProductPurchased reports whether the user has a completed purchase
// of the product. Pending and failed purchases never count.
func (s *PurchaseStore) IsProductPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND product_id = $2 AND status = 'completed'
		)
	`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product purchase: %w", err)
	}
	return exists, nil
}

// IsBundlePurchased reports whether the user has a completed purchase
// of the bundle.
func (s *PurchaseStore) IsBundlePurchased(ctx context.Context, userID, bundleID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND bundle_id = $2 AND status = 'completed'
		)
	`, userID, bundleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bundle purchase: %w", err)
	}
	return exists, nil
}

// PurchasedBundleIDs returns the distinct bundle ids from the user's
// completed purchases.
func (s *PurchaseStore) PurchasedBundleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT bundle_id FROM purchases
		WHERE user_id = $1 AND bundle_id IS NOT NULL AND status = 'completed'
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchased bundles: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bundle id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
