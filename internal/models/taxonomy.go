package models

import (
	"time"
)

// TaxonomyType distinguishes the three curated vocabularies.
type TaxonomyType string

const (
	TaxonomyCategory TaxonomyType = "category"
	TaxonomyTag      TaxonomyType = "tag"
	TaxonomyFeature  TaxonomyType = "feature"
)

// TaxonomyTerm is a canonical category/tag/feature with its known aliases.
// Terms are seeded from the store at startup and read-only during a job;
// new terms enter only through an explicit curation step.
type TaxonomyTerm struct {
	ID          string       `db:"id"           json:"id"`
	Type        TaxonomyType `db:"type"         json:"type"`
	DisplayName string       `db:"display_name" json:"display_name"`
	Aliases     []string     `db:"-"            json:"aliases,omitempty"`
}

// MissingTaxonomyItem records a raw term seen during ingestion with no
// canonical match, queued for human curation. Occurrence counts persist
// across process restarts.
type MissingTaxonomyItem struct {
	Type            TaxonomyType `db:"type"             json:"type"`
	RawName         string       `db:"raw_name"         json:"raw_name"`
	FirstSeenAt     time.Time    `db:"first_seen_at"    json:"first_seen_at"`
	OccurrenceCount int          `db:"occurrence_count" json:"occurrence_count"`
}
