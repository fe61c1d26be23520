package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a priced grouping of products sold together, optionally
// discounted. ProductIDs reference Product.ID values.
type Bundle struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	Price              Money         `json:"price"`
	Description        string        `json:"description"`
	ProductIDs         []uuid.UUID   `json:"product_ids"`
	Status             CatalogStatus `json:"status"`
	DiscountPercentage *int          `json:"discount_percentage,omitempty"`
	IsFeatured         bool          `json:"is_featured"`
	PublishedAt        *time.Time    `json:"published_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// IsPublished reports whether the bundle is visible to the public.
func (b *Bundle) IsPublished() bool {
	return b.PublishedAt != nil
}

// Contains reports whether the bundle includes the given product.
func (b *Bundle) Contains(productID uuid.UUID) bool {
	for _, id := range b.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
