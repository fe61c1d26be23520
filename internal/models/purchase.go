package models

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus is the transaction state of a purchase. Only completed
// purchases grant entitlement.
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase is one immutable ledger row. Exactly one of ProductID and
// BundleID is set per record.
type Purchase struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	ProductID    *uuid.UUID     `json:"product_id,omitempty"`
	BundleID     *uuid.UUID     `json:"bundle_id,omitempty"`
	PurchaseDate time.Time      `json:"purchase_date"`
	Amount       Money          `json:"amount"`
	Status       PurchaseStatus `json:"status"`
}

// Grants reports whether this purchase counts toward entitlement.
func (p *Purchase) Grants() bool {
	return p.Status == PurchaseStatusCompleted
}

// Target returns which side of the ledger row is set. It reports an
// invalid row (neither or both sides set) as ok=false.
func (p *Purchase) Target() (productID, bundleID *uuid.UUID, ok bool) {
	if (p.ProductID == nil) == (p.BundleID == nil) {
		return nil, nil, false
	}
	return p.ProductID, p.BundleID, true
}
