// Package dedup decides whether a normalized record is the same tool as
// an already-stored entity.
package dedup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// Store is the read side of the entity store the matcher consults.
type Store interface {
	// FindByURL returns the entity with the given canonical URL, or nil
	// when none exists.
	FindByURL(ctx context.Context, url string) (*models.Entity, error)
	// FindByNormalizedName returns entities whose punctuation-stripped
	// lower-cased name equals the given value.
	FindByNormalizedName(ctx context.Context, name string) ([]*models.Entity, error)
}

// MatchKind reports how a match was established.
type MatchKind int

const (
	// MatchNone means no existing entity corresponds to the record.
	MatchNone MatchKind = iota
	// MatchPrimary is an exact canonical-URL match: the same entity.
	MatchPrimary
	// MatchSecondary is a name+description-similarity match. It carries
	// non-zero false-positive risk and is logged distinctly.
	MatchSecondary
)

func (k MatchKind) String() string {
	switch k {
	case MatchPrimary:
		return "primary"
	case MatchSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Config controls the matching policy.
type Config struct {
	// SecondaryEnabled turns on the heuristic name/description match.
	// Disabled by default: a conservative policy that prefers a
	// duplicate entity over a wrong merge.
	SecondaryEnabled bool
	// JaccardThreshold is the minimum description word-set overlap for a
	// secondary match.
	JaccardThreshold float64
	// CacheSize bounds the per-matcher URL lookup cache.
	CacheSize int
}

const defaultCacheSize = 4096

// Matcher matches records against the store, caching recent positive URL
// lookups so a burst of records for the same tool does not hammer the
// database.
type Matcher struct {
	store  Store
	cfg    Config
	cache  *lru.Cache[string, *models.Entity]
	logger logger.Logger
}

// NewMatcher creates a matcher with the given policy.
func NewMatcher(store Store, cfg Config, log logger.Logger) (*Matcher, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *models.Entity](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create dedup cache: %w", err)
	}
	return &Matcher{
		store:  store,
		cfg:    cfg,
		cache:  cache,
		logger: log,
	}, nil
}

// Match returns the existing entity the record corresponds to, if any.
// The primary key is the canonical website URL; the secondary heuristic
// only runs when enabled and when no URL match exists.
func (m *Matcher) Match(ctx context.Context, rec *models.NormalizedRecord) (*models.Entity, MatchKind, error) {
	if entity, ok := m.cache.Get(rec.WebsiteURL); ok {
		return entity, MatchPrimary, nil
	}

	entity, err := m.store.FindByURL(ctx, rec.WebsiteURL)
	if err != nil {
		return nil, MatchNone, fmt.Errorf("find by url: %w", err)
	}
	if entity != nil {
		m.cache.Add(rec.WebsiteURL, entity)
		return entity, MatchPrimary, nil
	}

	if !m.cfg.SecondaryEnabled {
		return nil, MatchNone, nil
	}

	entity, err = m.matchSecondary(ctx, rec)
	if err != nil {
		return nil, MatchNone, err
	}
	if entity != nil {
		m.logger.Warn("Secondary dedup match",
			logger.String("record_name", rec.Name),
			logger.String("record_url", rec.WebsiteURL),
			logger.String("entity_id", entity.ID),
			logger.String("entity_url", entity.WebsiteURL),
		)
		return entity, MatchSecondary, nil
	}

	return nil, MatchNone, nil
}

// Remember registers a freshly inserted entity so later records in the
// same stream resolve it without a store read.
func (m *Matcher) Remember(entity *models.Entity) {
	m.cache.Add(entity.WebsiteURL, entity)
}

func (m *Matcher) matchSecondary(ctx context.Context, rec *models.NormalizedRecord) (*models.Entity, error) {
	name := NormalizeName(rec.Name)
	if name == "" {
		return nil, nil
	}

	candidates, err := m.store.FindByNormalizedName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find by name: %w", err)
	}

	for _, candidate := range candidates {
		score := Jaccard(rec.Description, candidate.Description)
		if score >= m.cfg.JaccardThreshold {
			return candidate, nil
		}
		m.logger.Debug("Secondary candidate below threshold",
			logger.String("record_name", rec.Name),
			logger.String("entity_id", candidate.ID),
			logger.Float64("jaccard", score),
		)
	}
	return nil, nil
}

var namePunctRe = regexp.MustCompile(`[^a-z0-9 ]+`)

// NormalizeName lower-cases a tool name and strips punctuation, the
// equality key for secondary matching.
func NormalizeName(name string) string {
	name = namePunctRe.ReplaceAllString(strings.ToLower(name), " ")
	return strings.Join(strings.Fields(name), " ")
}

// Jaccard computes word-set overlap between two texts (intersection size
// over union size). Two empty texts score zero, not one; an absent
// description must never certify a match.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
