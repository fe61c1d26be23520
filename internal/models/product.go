package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductType distinguishes the kinds of exam-preparation products.
type ProductType string

const (
	ProductTypeExam       ProductType = "exam"
	ProductTypeQuiz       ProductType = "quiz"
	ProductTypeDomainQuiz ProductType = "domain_quiz"
)

// CatalogStatus is the editorial state of a product or bundle. Public
// visibility is decided by the publish timestamp alone, not by this flag.
type CatalogStatus string

const (
	CatalogStatusActive   CatalogStatus = "active"
	CatalogStatusDraft    CatalogStatus = "draft"
	CatalogStatusArchived CatalogStatus = "archived"
)

// Product is a single purchasable catalog item. The slug is the external
// lookup key for the storefront; the id is the internal key used by
// purchases and bundles.
type Product struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Price       Money         `json:"price"`
	Description string        `json:"description"`
	Type        ProductType   `json:"type"`
	QuestionIDs []string      `json:"question_ids"`
	Status      CatalogStatus `json:"status"`
	IsFeatured  bool          `json:"is_featured"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsPublished reports whether the product is visible to the public.
// A product with a publish timestamp is visible even while archived.
func (p *Product) IsPublished() bool {
	return p.PublishedAt != nil
}
