package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed should be callable safely — it creates data only when the users
	// table is empty. We call it twice to verify idempotency. We don't
	// clear the database first because other test packages may be running
	// concurrently against the same database.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	// Verify admin user exists.
	var userCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = 'admin@prepkit.local'").Scan(&userCount); err != nil {
		t.Fatalf("count admin users: %v", err)
	}
	if userCount < 1 {
		t.Errorf("expected at least 1 admin user, got %d", userCount)
	}

	// Verify catalog exists.
	var productCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM products WHERE published_at IS NOT NULL").Scan(&productCount); err != nil {
		t.Fatalf("count products: %v", err)
	}
	if productCount < 1 {
		t.Errorf("expected at least 1 published product, got %d", productCount)
	}

	var bundleCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM bundles").Scan(&bundleCount); err != nil {
		t.Fatalf("count bundles: %v", err)
	}
	if bundleCount < 1 {
		t.Errorf("expected at least 1 bundle, got %d", bundleCount)
	}
}
