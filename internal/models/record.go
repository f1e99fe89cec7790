// Package models provides domain models used across the application.
package models

import (
	"time"
)

// RawRecord is the unstructured output of the extraction layer: a loose
// field-name to value mapping as scraped from a directory page. Any field
// may be absent; validation happens in the normalizer.
type RawRecord map[string]string

// Field names commonly emitted by the directory spiders.
const (
	FieldName        = "name"
	FieldWebsiteURL  = "website_url"
	FieldDescription = "description"
	FieldCategories  = "categories"
	FieldTags        = "tags"
	FieldPricing     = "pricing_model"
	FieldLogoURL     = "logo_url"
	FieldRating      = "average_rating"
	FieldReviewCount = "review_count"
	FieldSourceSite  = "source_directory"
)

// Get returns the trimmed value for a field, or "" when absent.
func (r RawRecord) Get(field string) string {
	return r[field]
}

// PricingModel classifies how a tool is priced.
type PricingModel string

const (
	PricingFree     PricingModel = "free"
	PricingFreemium PricingModel = "freemium"
	PricingPaid     PricingModel = "paid"
	PricingUnknown  PricingModel = "unknown"
)

// NormalizedRecord is the stable intermediate form a RawRecord is reduced
// to before deduplication and persistence. WebsiteURL is always present
// and canonical; records that cannot satisfy that are rejected upstream.
type NormalizedRecord struct {
	Name         string       `json:"name"`
	WebsiteURL   string       `json:"website_url"`
	Description  string       `json:"description,omitempty"`
	Categories   []string     `json:"categories,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	PricingModel PricingModel `json:"pricing_model"`
	LogoURL      string       `json:"logo_url,omitempty"`
	AvgRating    *float64     `json:"avg_rating,omitempty"`
	ReviewCount  *int         `json:"review_count,omitempty"`
	SourceSite   string       `json:"source_site"`
	ScrapedAt    time.Time    `json:"scraped_at"`
}
