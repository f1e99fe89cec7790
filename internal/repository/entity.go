// Package repository is the PostgreSQL persistence layer for entities
// and taxonomy data.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/tool-ingestor/internal/dedup"
	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

const entityColumns = `
	id, name, normalized_name, website_url, description,
	category_ids, tag_ids, pricing_model, logo_url,
	avg_rating, review_count, source_sites, created_at, updated_at
`

// EntityRepository persists deduplicated tool entities.
type EntityRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewEntityRepository creates an entity repository.
func NewEntityRepository(db *sqlx.DB, log logger.Logger) *EntityRepository {
	return &EntityRepository{
		db:     db,
		logger: log,
	}
}

// FindByURL returns the entity holding the canonical URL, or nil when
// none exists.
func (r *EntityRepository) FindByURL(ctx context.Context, url string) (*models.Entity, error) {
	query := `SELECT` + entityColumns + `FROM entities WHERE website_url = $1`

	entity, err := r.scanOne(r.db.QueryRowxContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity by url: %w", classify(err))
	}
	return entity, nil
}

// FindByNormalizedName returns entities whose normalized name equals the
// given value. Used only by the secondary dedup heuristic.
func (r *EntityRepository) FindByNormalizedName(ctx context.Context, name string) ([]*models.Entity, error) {
	query := `SELECT` + entityColumns + `FROM entities WHERE normalized_name = $1`

	rows, err := r.db.QueryxContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("find entities by name: %w", classify(err))
	}
	defer rows.Close()

	var entities []*models.Entity
	for rows.Next() {
		entity, scanErr := r.scanOne(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan entity: %w", scanErr)
		}
		entities = append(entities, entity)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate entities: %w", classify(rowsErr))
	}
	return entities, nil
}

// Insert persists a new entity. The website_url unique constraint is the
// final arbiter of duplication; losing that race yields ErrDuplicateURL.
func (r *EntityRepository) Insert(ctx context.Context, entity *models.Entity) error {
	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		dedup.NormalizeName(entity.Name),
		entity.WebsiteURL,
		entity.Description,
		pq.Array(entity.CategoryIDs),
		pq.Array(entity.TagIDs),
		entity.PricingModel,
		entity.LogoURL,
		entity.AvgRating,
		entity.ReviewCount,
		pq.Array(entity.SourceSites),
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert entity: %w", ErrDuplicateURL)
		}
		return fmt.Errorf("insert entity: %w", classify(err))
	}
	return nil
}

// Update persists merged changes to an existing entity.
func (r *EntityRepository) Update(ctx context.Context, entity *models.Entity) error {
	query := `
		UPDATE entities
		SET name = $2, normalized_name = $3, description = $4,
		    category_ids = $5, tag_ids = $6, pricing_model = $7,
		    logo_url = $8, avg_rating = $9, review_count = $10,
		    source_sites = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		dedup.NormalizeName(entity.Name),
		entity.Description,
		pq.Array(entity.CategoryIDs),
		pq.Array(entity.TagIDs),
		entity.PricingModel,
		entity.LogoURL,
		entity.AvgRating,
		entity.ReviewCount,
		pq.Array(entity.SourceSites),
		entity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update entity: %w", classify(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update entity %s: %w", entity.ID, ErrNotFound)
	}
	return nil
}

// ListBySource returns the most recently updated entities attributed to
// a source site. Backs the dashboard results endpoint.
func (r *EntityRepository) ListBySource(ctx context.Context, site string, limit int) ([]models.Entity, error) {
	query := `
		SELECT` + entityColumns + `
		FROM entities
		WHERE $1 = ANY(source_sites)
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryxContext(ctx, query, site, limit)
	if err != nil {
		return nil, fmt.Errorf("list entities by source: %w", classify(err))
	}
	defer rows.Close()

	entities := make([]models.Entity, 0)
	for rows.Next() {
		entity, scanErr := r.scanOne(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan entity: %w", scanErr)
		}
		entities = append(entities, *entity)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate entities: %w", classify(rowsErr))
	}
	return entities, nil
}

// Count returns the total number of stored entities.
func (r *EntityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM entities`); err != nil {
		return 0, fmt.Errorf("count entities: %w", classify(err))
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EntityRepository) scanOne(row rowScanner) (*models.Entity, error) {
	var entity models.Entity
	var normalizedName string
	var description, logoURL sql.NullString

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&normalizedName,
		&entity.WebsiteURL,
		&description,
		pq.Array(&entity.CategoryIDs),
		pq.Array(&entity.TagIDs),
		&entity.PricingModel,
		&logoURL,
		&entity.AvgRating,
		&entity.ReviewCount,
		pq.Array(&entity.SourceSites),
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.Description = description.String
	entity.LogoURL = logoURL.String
	return &entity, nil
}
