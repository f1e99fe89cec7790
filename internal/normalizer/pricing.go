package normalizer

import (
	"strings"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// Pricing classification confidences. The substring rules are a
// best-effort heuristic, not exact classification; callers that need
// certainty should treat anything below high confidence as advisory.
const (
	pricingConfidenceExact    = 0.95
	pricingConfidenceStrong   = 0.85
	pricingConfidenceInferred = 0.70
)

// ParsePricing maps a free-text pricing phrase onto the fixed enum using
// case-insensitive substring rules, returning the model and a confidence
// score. Unmatched input yields (PricingUnknown, 0).
func ParsePricing(raw string) (models.PricingModel, float64) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return models.PricingUnknown, 0
	}

	switch {
	case strings.Contains(text, "freemium"):
		return models.PricingFreemium, pricingConfidenceExact
	case strings.Contains(text, "free") && containsAny(text, "trial", "premium", "paid plan", "upgrade"):
		return models.PricingFreemium, pricingConfidenceStrong
	case strings.Contains(text, "open source") || strings.Contains(text, "open-source"):
		return models.PricingFree, pricingConfidenceInferred
	case strings.Contains(text, "free"):
		return models.PricingFree, pricingConfidenceStrong
	case containsAny(text, "paid", "subscription", "per month", "/mo", "one-time", "purchase", "contact sales", "enterprise", "$"):
		return models.PricingPaid, pricingConfidenceStrong
	default:
		return models.PricingUnknown, 0
	}
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
