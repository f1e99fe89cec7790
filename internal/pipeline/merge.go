package pipeline

import (
	"time"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// MergeRecord folds a normalized record into an existing entity. Existing
// values win; the record only fills fields the entity is missing and
// appends taxonomy ids and source attribution it does not carry yet.
// Returns whether anything changed.
func MergeRecord(entity *models.Entity, rec *models.NormalizedRecord, categoryIDs, tagIDs []string, now time.Time) bool {
	changed := false

	if entity.Description == "" && rec.Description != "" {
		entity.Description = rec.Description
		changed = true
	}
	if entity.LogoURL == "" && rec.LogoURL != "" {
		entity.LogoURL = rec.LogoURL
		changed = true
	}
	if entity.PricingModel == models.PricingUnknown && rec.PricingModel != models.PricingUnknown {
		entity.PricingModel = rec.PricingModel
		changed = true
	}
	if entity.AvgRating == nil && rec.AvgRating != nil {
		entity.AvgRating = rec.AvgRating
		changed = true
	}
	if entity.ReviewCount == nil && rec.ReviewCount != nil {
		entity.ReviewCount = rec.ReviewCount
		changed = true
	}

	if appended := appendMissing(&entity.CategoryIDs, categoryIDs); appended {
		changed = true
	}
	if appended := appendMissing(&entity.TagIDs, tagIDs); appended {
		changed = true
	}

	if rec.SourceSite != "" && !entity.HasSource(rec.SourceSite) {
		entity.SourceSites = append(entity.SourceSites, rec.SourceSite)
		changed = true
	}

	if changed {
		entity.UpdatedAt = now
	}
	return changed
}

func appendMissing(dst *[]string, ids []string) bool {
	existing := make(map[string]struct{}, len(*dst))
	for _, id := range *dst {
		existing[id] = struct{}{}
	}

	added := false
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		*dst = append(*dst, id)
		added = true
	}
	return added
}
