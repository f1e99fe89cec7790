package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const ratingScale = 5.0

var (
	fractionRe = regexp.MustCompile(`^([0-9][0-9.,]*)\s*/\s*([0-9]+)$`)
	percentRe  = regexp.MustCompile(`^([0-9][0-9.]*)\s*%$`)
	countRe    = regexp.MustCompile(`([0-9][0-9.,]*)\s*([kKmM]?)`)
)

// ParseRating parses a free-text rating into a 0-5 scale value. It
// tolerates "4.5/5", "9/10", "90%", and plain numbers; anything it cannot
// make sense of yields nil, never an error.
func ParseRating(raw string) *float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	if m := fractionRe.FindStringSubmatch(text); m != nil {
		num, err1 := parseDecimal(m[1])
		den, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return nil
		}
		return clampRating(num / den * ratingScale)
	}

	if m := percentRe.FindStringSubmatch(text); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return clampRating(pct / 100 * ratingScale)
	}

	val, err := parseDecimal(text)
	if err != nil || val < 0 || val > ratingScale {
		return nil
	}
	return &val
}

// ParseReviewCount parses a review count tolerating thousands separators
// and k/M suffixes ("1,234", "2.3k"). Unparsable input yields nil.
func ParseReviewCount(raw string) *int {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	m := countRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	val, err := parseDecimal(m[1])
	if err != nil || val < 0 {
		return nil
	}

	switch strings.ToLower(m[2]) {
	case "k":
		val *= 1_000
	case "m":
		val *= 1_000_000
	}

	count := int(math.Round(val))
	return &count
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func clampRating(v float64) *float64 {
	if v < 0 {
		v = 0
	}
	if v > ratingScale {
		v = ratingScale
	}
	return &v
}
