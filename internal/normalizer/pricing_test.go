package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

func TestParsePricing(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PricingModel
	}{
		{"Freemium", models.PricingFreemium},
		{"Free + paid plans available", models.PricingFreemium},
		{"Free trial, then $29/mo", models.PricingFreemium},
		{"Free, upgrade for more", models.PricingFreemium},
		{"Free", models.PricingFree},
		{"100% free forever", models.PricingFree},
		{"Open Source", models.PricingFree},
		{"open-source", models.PricingFree},
		{"Paid", models.PricingPaid},
		{"$19 per month", models.PricingPaid},
		{"Subscription", models.PricingPaid},
		{"Contact Sales", models.PricingPaid},
		{"One-time purchase", models.PricingPaid},
		{"", models.PricingUnknown},
		{"ask us", models.PricingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, _ := ParsePricing(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePricing_Confidence(t *testing.T) {
	_, confidence := ParsePricing("Freemium")
	assert.InDelta(t, 0.95, confidence, 0.001)

	_, confidence = ParsePricing("unintelligible")
	assert.Zero(t, confidence)
}
