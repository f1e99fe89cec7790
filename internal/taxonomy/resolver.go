// Package taxonomy resolves free-text category/tag/feature strings
// against the controlled taxonomy seeded from the store.
package taxonomy

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// MissRecorder persists unresolved raw terms for curation. Implemented by
// the taxonomy repository.
type MissRecorder interface {
	UpsertMissing(ctx context.Context, typ models.TaxonomyType, rawName string) error
}

var punctRe = regexp.MustCompile(`[^a-z0-9 ]+`)

// Resolver maps raw strings to canonical taxonomy terms. Matching is
// exact (case-insensitive on display name or alias) with a
// normalized-token fallback. There is deliberately no fuzzy edit-distance
// matching: a near-miss surfaces in the missing-items log instead of
// auto-binding, because a wrong automatic bind corrupts the taxonomy
// silently.
type Resolver struct {
	exact      map[models.TaxonomyType]map[string]*models.TaxonomyTerm
	normalized map[models.TaxonomyType]map[string]*models.TaxonomyTerm
	misses     MissRecorder
	logger     logger.Logger
}

// NewResolver builds a resolver over a taxonomy snapshot. The snapshot is
// read-only for the resolver's lifetime; curation changes require a
// reload.
func NewResolver(terms []models.TaxonomyTerm, misses MissRecorder, log logger.Logger) *Resolver {
	r := &Resolver{
		exact:      make(map[models.TaxonomyType]map[string]*models.TaxonomyTerm),
		normalized: make(map[models.TaxonomyType]map[string]*models.TaxonomyTerm),
		misses:     misses,
		logger:     log,
	}

	for i := range terms {
		term := &terms[i]
		r.index(term, term.DisplayName)
		for _, alias := range term.Aliases {
			r.index(term, alias)
		}
	}

	return r
}

func (r *Resolver) index(term *models.TaxonomyTerm, name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return
	}
	if r.exact[term.Type] == nil {
		r.exact[term.Type] = make(map[string]*models.TaxonomyTerm)
		r.normalized[term.Type] = make(map[string]*models.TaxonomyTerm)
	}
	// First writer wins on collisions so resolution stays deterministic.
	if _, taken := r.exact[term.Type][key]; !taken {
		r.exact[term.Type][key] = term
	}
	if norm := normalizeTokens(key); norm != "" {
		if _, taken := r.normalized[term.Type][norm]; !taken {
			r.normalized[term.Type][norm] = term
		}
	}
}

// Resolve looks up a raw name. On a miss it records a MissingTaxonomyItem
// through the MissRecorder and returns ok=false; misses never block
// ingestion.
func (r *Resolver) Resolve(ctx context.Context, typ models.TaxonomyType, rawName string) (*models.TaxonomyTerm, bool) {
	key := strings.ToLower(strings.TrimSpace(rawName))
	if key == "" {
		return nil, false
	}

	if term, ok := r.exact[typ][key]; ok {
		return term, true
	}
	if term, ok := r.normalized[typ][normalizeTokens(key)]; ok {
		return term, true
	}

	if r.misses != nil {
		if err := r.misses.UpsertMissing(ctx, typ, rawName); err != nil {
			r.logger.Warn("Failed to record missing taxonomy item",
				logger.String("type", string(typ)),
				logger.String("raw_name", rawName),
				logger.Error(err),
			)
		}
	}
	r.logger.Debug("Unresolved taxonomy term",
		logger.String("type", string(typ)),
		logger.String("raw_name", rawName),
	)
	return nil, false
}

// ResolveAll resolves a batch of raw names and returns the ids of the
// terms that matched, preserving input order and dropping duplicates.
func (r *Resolver) ResolveAll(ctx context.Context, typ models.TaxonomyType, rawNames []string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, raw := range rawNames {
		term, ok := r.Resolve(ctx, typ, raw)
		if !ok {
			continue
		}
		if _, dup := seen[term.ID]; dup {
			continue
		}
		seen[term.ID] = struct{}{}
		ids = append(ids, term.ID)
	}
	return ids
}

// TermCount returns the number of indexed names for a type. Used by the
// service health endpoint.
func (r *Resolver) TermCount(typ models.TaxonomyType) int {
	return len(r.exact[typ])
}

// normalizeTokens strips punctuation and singularizes simple plurals so
// "AI Chatbots!" matches "ai chatbot".
func normalizeTokens(s string) string {
	s = punctRe.ReplaceAllString(strings.ToLower(s), " ")
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = singularize(f)
	}
	return strings.Join(fields, " ")
}

// singularize handles the regular English plural forms only. Irregular
// plurals stay as-is and fall through to the missing-items log.
func singularize(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && (strings.HasSuffix(word, "ches") ||
		strings.HasSuffix(word, "shes") ||
		strings.HasSuffix(word, "sses") ||
		strings.HasSuffix(word, "xes") ||
		strings.HasSuffix(word, "zes")):
		return word[:len(word)-2]
	case len(word) > 2 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}
