package models

import (
	"time"
)

// Entity is a stored, deduplicated AI-tool record. WebsiteURL is unique
// across all entities; the ingestion pipeline only inserts or merges,
// never deletes.
type Entity struct {
	ID           string       `db:"id"            json:"id"`
	Name         string       `db:"name"          json:"name"`
	WebsiteURL   string       `db:"website_url"   json:"website_url"`
	Description  string       `db:"description"   json:"description,omitempty"`
	CategoryIDs  []string     `db:"-"             json:"category_ids,omitempty"`
	TagIDs       []string     `db:"-"             json:"tag_ids,omitempty"`
	PricingModel PricingModel `db:"pricing_model" json:"pricing_model"`
	LogoURL      string       `db:"logo_url"      json:"logo_url,omitempty"`
	AvgRating    *float64     `db:"avg_rating"    json:"avg_rating,omitempty"`
	ReviewCount  *int         `db:"review_count"  json:"review_count,omitempty"`
	SourceSites  []string     `db:"-"             json:"source_sites"`
	CreatedAt    time.Time    `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"    json:"updated_at"`
}

// HasSource reports whether the entity is already attributed to a source site.
func (e *Entity) HasSource(site string) bool {
	for _, s := range e.SourceSites {
		if s == site {
			return true
		}
	}
	return false
}
