// Package memory implements the store interfaces on process-local
// collections. It models the mock data layer: every operation pays a
// fixed artificial latency standing in for network I/O, and a single
// mutex serializes writers. It backs tests and the "memory" store
// driver, which runs the service without PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	"prepkit/internal/models"
)

// DefaultLatency is the simulated per-call delay when none is configured.
const DefaultLatency = 25 * time.Millisecond

// data is the shared backing state for all memory store views.
type data struct {
	mu      sync.Mutex
	latency time.Duration

	products  []models.Product
	bundles   []models.Bundle
	purchases []models.Purchase
	users     []models.User

	now func() time.Time
}

// wait simulates the mock layer's network delay. It returns early with
// the context error if the caller gives up first.
func (d *data) wait(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Store bundles the four repository views over one shared collection set.
type Store struct {
	d *data
}

// New creates an empty memory store with the given simulated latency.
// A non-positive latency disables the delay (useful in tests).
func New(latency time.Duration) *Store {
	return &Store{d: &data{
		latency: latency,
		now:     time.Now,
	}}
}

// Products returns the product repository view.
func (s *Store) Products() *ProductStore { return &ProductStore{d: s.d} }

// Bundles returns the bundle repository view.
func (s *Store) Bundles() *BundleStore { return &BundleStore{d: s.d} }

// Purchases returns the purchase ledger view.
func (s *Store) Purchases() *PurchaseStore { return &PurchaseStore{d: s.d} }

// Users returns the account repository view.
func (s *Store) Users() *UserStore { return &UserStore{d: s.d} }
