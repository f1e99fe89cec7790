package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// TaxonomyRepository loads the controlled taxonomy and persists
// unresolved terms for curation.
type TaxonomyRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewTaxonomyRepository creates a taxonomy repository.
func NewTaxonomyRepository(db *sqlx.DB, log logger.Logger) *TaxonomyRepository {
	return &TaxonomyRepository{
		db:     db,
		logger: log,
	}
}

// ListTerms returns all taxonomy terms with their aliases. The resolver
// loads this snapshot once at startup.
func (r *TaxonomyRepository) ListTerms(ctx context.Context) ([]models.TaxonomyTerm, error) {
	query := `
		SELECT t.id, t.type, t.display_name,
		       COALESCE(array_agg(a.alias) FILTER (WHERE a.alias IS NOT NULL), '{}') AS aliases
		FROM taxonomy_terms t
		LEFT JOIN taxonomy_aliases a ON a.term_id = t.id
		GROUP BY t.id, t.type, t.display_name
		ORDER BY t.type, t.display_name
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query taxonomy terms: %w", classify(err))
	}
	defer rows.Close()

	var terms []models.TaxonomyTerm
	for rows.Next() {
		var term models.TaxonomyTerm
		var aliases pq.StringArray
		if scanErr := rows.Scan(&term.ID, &term.Type, &term.DisplayName, &aliases); scanErr != nil {
			return nil, fmt.Errorf("scan taxonomy term: %w", scanErr)
		}
		term.Aliases = aliases
		terms = append(terms, term)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate taxonomy terms: %w", classify(rowsErr))
	}
	return terms, nil
}

// UpsertMissing records an unresolved raw term. Repeat sightings
// increment the persisted occurrence count so the curation queue ranks
// by demand.
func (r *TaxonomyRepository) UpsertMissing(ctx context.Context, typ models.TaxonomyType, rawName string) error {
	query := `
		INSERT INTO missing_taxonomy_items (type, raw_name, first_seen_at, occurrence_count)
		VALUES ($1, $2, NOW(), 1)
		ON CONFLICT (type, raw_name) DO UPDATE
		SET occurrence_count = missing_taxonomy_items.occurrence_count + 1
	`

	if _, err := r.db.ExecContext(ctx, query, typ, rawName); err != nil {
		return fmt.Errorf("upsert missing taxonomy item: %w", classify(err))
	}
	return nil
}

// ListMissing returns unresolved terms ordered by occurrence count, most
// frequent first.
func (r *TaxonomyRepository) ListMissing(ctx context.Context) ([]models.MissingTaxonomyItem, error) {
	query := `
		SELECT type, raw_name, first_seen_at, occurrence_count
		FROM missing_taxonomy_items
		ORDER BY occurrence_count DESC, raw_name
	`

	items := make([]models.MissingTaxonomyItem, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list missing taxonomy items: %w", classify(err))
	}
	return items, nil
}
