// Package normalizer reduces raw extracted records to a stable
// intermediate form: trimmed text, a canonical website URL, a classified
// pricing model, and parsed numeric fields. Normalization is pure; all
// I/O stays in the pipeline.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// ErrMissingName marks a record without a usable tool name.
var ErrMissingName = errors.New("missing tool name")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	listSplitRe  = regexp.MustCompile(`[|;,]`)
)

// Normalize converts a RawRecord into a NormalizedRecord, or fails with a
// rejection error (ErrMissingName, ErrInvalidURL) that the coordinator
// counts as a per-record failure. scrapedAt is used when the record does
// not carry its own parseable scraped_date.
func Normalize(raw models.RawRecord, scrapedAt time.Time) (*models.NormalizedRecord, error) {
	name := CleanText(raw.Get(models.FieldName))
	if name == "" {
		return nil, ErrMissingName
	}

	canonical, err := CanonicalizeURL(raw.Get(models.FieldWebsiteURL))
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", name, err)
	}

	pricing, _ := ParsePricing(raw.Get(models.FieldPricing))

	logoURL := strings.TrimSpace(raw.Get(models.FieldLogoURL))
	if logoURL != "" {
		// Logo URLs are carried as-is when valid, dropped when not;
		// a broken logo never rejects the record.
		if cleaned, logoErr := CanonicalizeURL(logoURL); logoErr == nil {
			logoURL = cleaned
		} else {
			logoURL = ""
		}
	}

	if ts := parseScrapedDate(raw.Get("scraped_date")); !ts.IsZero() {
		scrapedAt = ts
	}

	return &models.NormalizedRecord{
		Name:         name,
		WebsiteURL:   canonical,
		Description:  CleanText(raw.Get(models.FieldDescription)),
		Categories:   SplitList(raw.Get(models.FieldCategories)),
		Tags:         SplitList(raw.Get(models.FieldTags)),
		PricingModel: pricing,
		LogoURL:      logoURL,
		AvgRating:    ParseRating(raw.Get(models.FieldRating)),
		ReviewCount:  ParseReviewCount(raw.Get(models.FieldReviewCount)),
		SourceSite:   CleanText(raw.Get(models.FieldSourceSite)),
		ScrapedAt:    scrapedAt,
	}, nil
}

// CleanText trims leading/trailing whitespace and collapses internal
// whitespace runs to single spaces.
func CleanText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SplitList splits a delimiter-separated field (comma, pipe, or
// semicolon) into cleaned, de-duplicated values.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, part := range listSplitRe.Split(s, -1) {
		cleaned := CleanText(part)
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

func parseScrapedDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
