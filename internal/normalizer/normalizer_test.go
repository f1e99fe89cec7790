package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

func TestNormalize(t *testing.T) {
	scrapedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw := models.RawRecord{
		models.FieldName:        "  Chat   Helper  ",
		models.FieldWebsiteURL:  "HTTPS://ChatHelper.AI/?utm_source=dir",
		models.FieldDescription: "An  AI   assistant\nfor support teams.",
		models.FieldCategories:  "Chatbots, Customer Support|chatbots",
		models.FieldTags:        "support; ai",
		models.FieldPricing:     "Freemium",
		models.FieldLogoURL:     "https://cdn.chathelper.ai/logo.png",
		models.FieldRating:      "4.5/5",
		models.FieldReviewCount: "1,234",
		models.FieldSourceSite:  "toolify.ai",
	}

	rec, err := Normalize(raw, scrapedAt)
	require.NoError(t, err)

	assert.Equal(t, "Chat Helper", rec.Name)
	assert.Equal(t, "https://chathelper.ai", rec.WebsiteURL)
	assert.Equal(t, "An AI assistant for support teams.", rec.Description)
	assert.Equal(t, []string{"Chatbots", "Customer Support"}, rec.Categories)
	assert.Equal(t, []string{"support", "ai"}, rec.Tags)
	assert.Equal(t, models.PricingFreemium, rec.PricingModel)
	assert.Equal(t, "https://cdn.chathelper.ai/logo.png", rec.LogoURL)
	require.NotNil(t, rec.AvgRating)
	assert.InDelta(t, 4.5, *rec.AvgRating, 0.001)
	require.NotNil(t, rec.ReviewCount)
	assert.Equal(t, 1234, *rec.ReviewCount)
	assert.Equal(t, "toolify.ai", rec.SourceSite)
	assert.Equal(t, scrapedAt, rec.ScrapedAt)
}

func TestNormalize_Rejections(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		raw     models.RawRecord
		wantErr error
	}{
		{
			name: "missing name",
			raw: models.RawRecord{
				models.FieldWebsiteURL: "https://example.com",
			},
			wantErr: ErrMissingName,
		},
		{
			name: "whitespace name",
			raw: models.RawRecord{
				models.FieldName:       "   ",
				models.FieldWebsiteURL: "https://example.com",
			},
			wantErr: ErrMissingName,
		},
		{
			name: "missing url",
			raw: models.RawRecord{
				models.FieldName: "Tool",
			},
			wantErr: ErrInvalidURL,
		},
		{
			name: "relative url",
			raw: models.RawRecord{
				models.FieldName:       "Tool",
				models.FieldWebsiteURL: "/tool/123",
			},
			wantErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.raw, now)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalize_OptionalFieldsAbsent(t *testing.T) {
	rec, err := Normalize(models.RawRecord{
		models.FieldName:       "Bare Tool",
		models.FieldWebsiteURL: "https://bare.example.com",
	}, time.Now())
	require.NoError(t, err)

	assert.Empty(t, rec.Description)
	assert.Nil(t, rec.Categories)
	assert.Nil(t, rec.Tags)
	assert.Equal(t, models.PricingUnknown, rec.PricingModel)
	assert.Empty(t, rec.LogoURL)
	assert.Nil(t, rec.AvgRating)
	assert.Nil(t, rec.ReviewCount)
}

func TestNormalize_BrokenLogoDropped(t *testing.T) {
	rec, err := Normalize(models.RawRecord{
		models.FieldName:       "Tool",
		models.FieldWebsiteURL: "https://example.com",
		models.FieldLogoURL:    "not a url",
	}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, rec.LogoURL)
}

func TestNormalize_ScrapedDateFromRecord(t *testing.T) {
	fallback := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rec, err := Normalize(models.RawRecord{
		models.FieldName:       "Tool",
		models.FieldWebsiteURL: "https://example.com",
		"scraped_date":         "2025-05-20",
	}, fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), rec.ScrapedAt)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a, b| c"))
	assert.Equal(t, []string{"AI Tools"}, SplitList("AI Tools; ai tools"))
	assert.Nil(t, SplitList("  "))
	assert.Nil(t, SplitList(",,|;"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\t b \n c "))
	assert.Empty(t, CleanText("   "))
}
