package handlers

import (
	"strings"
	"unicode/utf8"

	"prepkit/internal/models"
)

// Validation limits for catalog fields.
const (
	maxNameLen        = 300
	maxSlugLen        = 300
	maxDescriptionLen = 10_000
	maxQuestionIDs    = 5_000
	maxBundleProducts = 200
)

// validateProduct checks product inputs and returns the first error found.
func validateProduct(name, slug string, price models.Money, ptype models.ProductType) string {
	if msg := validateCatalogCommon(name, slug, price); msg != "" {
		return msg
	}
	switch ptype {
	case models.ProductTypeExam, models.ProductTypeQuiz, models.ProductTypeDomainQuiz:
	default:
		return "Type must be exam, quiz, or domain_quiz."
	}
	return ""
}

// validateBundle checks bundle inputs and returns the first error found.
func validateBundle(name, slug string, price models.Money, productCount int, discount *int) string {
	if msg := validateCatalogCommon(name, slug, price); msg != "" {
		return msg
	}
	if productCount == 0 {
		return "A bundle needs at least one product."
	}
	if productCount > maxBundleProducts {
		return "A bundle cannot hold more than 200 products."
	}
	if discount != nil && (*discount < 0 || *discount > 100) {
		return "Discount percentage must be between 0 and 100."
	}
	return ""
}

func validateCatalogCommon(name, slug string, price models.Money) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if price.Amount < 0 {
		return "Price cannot be negative."
	}
	if price.Currency == "" {
		return "Price currency is required."
	}
	return ""
}
