package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user and a small published catalog so the
// storefront has something to show. The admin will be prompted to set
// up 2FA on first login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@prepkit.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	if err := seedCatalog(db); err != nil {
		return err
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@prepkit.local",
		"password", "admin",
	)

	return nil
}

// seedCatalog inserts two published practice exams and a starter bundle
// linking them.
func seedCatalog(db *sql.DB) error {
	now := time.Now()

	products := []struct {
		name, slug, description, ptype string
		amount                         int64
		questionIDs                    []string
		featured                       bool
	}{
		{
			name:        "CISSP Practice Exam",
			slug:        "cissp-practice-exam",
			description: "Full-length timed practice exam covering all eight CISSP domains.",
			ptype:       "exam",
			amount:      4999,
			questionIDs: []string{"q-1001", "q-1002", "q-1003"},
			featured:    true,
		},
		{
			name:        "Security+ Practice Exam",
			slug:        "security-plus-practice-exam",
			description: "90-question practice exam for the CompTIA Security+ certification.",
			ptype:       "exam",
			amount:      2999,
			questionIDs: []string{"q-2001", "q-2002"},
		},
	}

	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		qids, err := json.Marshal(p.questionIDs)
		if err != nil {
			return fmt.Errorf("seed encode question ids: %w", err)
		}

		var id string
		err = db.QueryRow(`
			INSERT INTO products (name, slug, price_amount, price_currency,
				description, type, question_ids, status, is_featured, published_at)
			VALUES ($1, $2, $3, 'USD', $4, $5, $6, 'active', $7, $8)
			RETURNING id
		`, p.name, p.slug, p.amount, p.description, p.ptype, qids, p.featured, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert product %s: %w", p.slug, err)
		}
		productIDs = append(productIDs, id)
	}

	pids, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("seed encode product ids: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO bundles (name, slug, price_amount, price_currency,
			description, product_ids, status, discount_percentage, is_featured, published_at)
		VALUES ($1, $2, $3, 'USD', $4, $5, 'active', $6, TRUE, $7)
	`, "Certification Starter Bundle", "certification-starter-bundle", 6399,
		"CISSP and Security+ practice exams together at 20% off.", pids, 20, now)
	if err != nil {
		return fmt.Errorf("seed insert bundle: %w", err)
	}

	return nil
}
