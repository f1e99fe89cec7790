package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

func TestMergeRecord_ExistingValuesWin(t *testing.T) {
	now := time.Now()
	rating := 3.0
	entity := &models.Entity{
		Name:         "Tool",
		WebsiteURL:   "https://tool.example.com",
		Description:  "Original description",
		PricingModel: models.PricingFree,
		LogoURL:      "https://cdn.example.com/logo.png",
		AvgRating:    &rating,
	}

	newRating := 4.8
	changed := MergeRecord(entity, &models.NormalizedRecord{
		Name:         "Tool",
		WebsiteURL:   "https://tool.example.com",
		Description:  "Different description",
		PricingModel: models.PricingPaid,
		LogoURL:      "https://other.example.com/logo.png",
		AvgRating:    &newRating,
	}, nil, nil, now)

	assert.False(t, changed)
	assert.Equal(t, "Original description", entity.Description)
	assert.Equal(t, models.PricingFree, entity.PricingModel)
	assert.Equal(t, "https://cdn.example.com/logo.png", entity.LogoURL)
	assert.InDelta(t, 3.0, *entity.AvgRating, 0.001)
}

func TestMergeRecord_FillsMissingFields(t *testing.T) {
	now := time.Now()
	entity := &models.Entity{
		Name:         "Tool",
		WebsiteURL:   "https://tool.example.com",
		PricingModel: models.PricingUnknown,
	}

	rating := 4.5
	reviews := 120
	changed := MergeRecord(entity, &models.NormalizedRecord{
		Name:         "Tool",
		Description:  "Filled in",
		PricingModel: models.PricingFreemium,
		LogoURL:      "https://cdn.example.com/logo.png",
		AvgRating:    &rating,
		ReviewCount:  &reviews,
	}, nil, nil, now)

	assert.True(t, changed)
	assert.Equal(t, "Filled in", entity.Description)
	assert.Equal(t, models.PricingFreemium, entity.PricingModel)
	assert.Equal(t, "https://cdn.example.com/logo.png", entity.LogoURL)
	assert.InDelta(t, 4.5, *entity.AvgRating, 0.001)
	assert.Equal(t, 120, *entity.ReviewCount)
	assert.Equal(t, now, entity.UpdatedAt)
}

func TestMergeRecord_AppendsTaxonomyAndSources(t *testing.T) {
	entity := &models.Entity{
		Name:        "Tool",
		CategoryIDs: []string{"cat-1"},
		TagIDs:      []string{"tag-1"},
		SourceSites: []string{"toolify.ai"},
	}

	changed := MergeRecord(entity, &models.NormalizedRecord{
		Name:       "Tool",
		SourceSite: "futuretools.io",
	}, []string{"cat-1", "cat-2"}, []string{"tag-1"}, time.Now())

	assert.True(t, changed)
	assert.Equal(t, []string{"cat-1", "cat-2"}, entity.CategoryIDs)
	assert.Equal(t, []string{"tag-1"}, entity.TagIDs)
	assert.Equal(t, []string{"toolify.ai", "futuretools.io"}, entity.SourceSites)
}

func TestMergeRecord_NoChangeLeavesTimestamp(t *testing.T) {
	updatedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entity := &models.Entity{
		Name:        "Tool",
		Description: "desc",
		SourceSites: []string{"toolify.ai"},
		UpdatedAt:   updatedAt,
	}

	changed := MergeRecord(entity, &models.NormalizedRecord{
		Name:       "Tool",
		SourceSite: "toolify.ai",
	}, nil, nil, time.Now())

	assert.False(t, changed)
	assert.Equal(t, updatedAt, entity.UpdatedAt)
}
