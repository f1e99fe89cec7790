package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/tool-ingestor/internal/models"
	"github.com/jonesrussell/tool-ingestor/internal/testhelpers"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func entityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "normalized_name", "website_url", "description",
		"category_ids", "tag_ids", "pricing_model", "logo_url",
		"avg_rating", "review_count", "source_sites", "created_at", "updated_at",
	})
}

func TestEntityRepository_FindByURL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	now := time.Now()
	mock.ExpectQuery(`SELECT(.|\n)*FROM entities WHERE website_url = \$1`).
		WithArgs("https://tool.example.com").
		WillReturnRows(entityRows().AddRow(
			"id-1", "Tool", "tool", "https://tool.example.com", "A tool",
			[]byte("{cat-1,cat-2}"), []byte("{tag-1}"), "freemium", "https://cdn.example.com/logo.png",
			4.5, 120, []byte("{toolify.ai}"), now, now,
		))

	entity, err := repo.FindByURL(context.Background(), "https://tool.example.com")
	require.NoError(t, err)
	require.NotNil(t, entity)

	assert.Equal(t, "id-1", entity.ID)
	assert.Equal(t, "Tool", entity.Name)
	assert.Equal(t, "A tool", entity.Description)
	assert.Equal(t, []string{"cat-1", "cat-2"}, entity.CategoryIDs)
	assert.Equal(t, []string{"tag-1"}, entity.TagIDs)
	assert.Equal(t, models.PricingFreemium, entity.PricingModel)
	require.NotNil(t, entity.AvgRating)
	assert.InDelta(t, 4.5, *entity.AvgRating, 0.001)
	require.NotNil(t, entity.ReviewCount)
	assert.Equal(t, 120, *entity.ReviewCount)
	assert.Equal(t, []string{"toolify.ai"}, entity.SourceSites)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_FindByURL_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	mock.ExpectQuery(`SELECT(.|\n)*FROM entities WHERE website_url = \$1`).
		WithArgs("https://absent.example.com").
		WillReturnError(sql.ErrNoRows)

	entity, err := repo.FindByURL(context.Background(), "https://absent.example.com")
	require.NoError(t, err)
	assert.Nil(t, entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_FindByNormalizedName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	now := time.Now()
	mock.ExpectQuery(`SELECT(.|\n)*FROM entities WHERE normalized_name = \$1`).
		WithArgs("tool").
		WillReturnRows(entityRows().
			AddRow("id-1", "Tool", "tool", "https://tool.example.com", "A tool",
				[]byte("{}"), []byte("{}"), "free", nil, nil, nil, []byte("{}"), now, now).
			AddRow("id-2", "Tool", "tool", "https://tool.other.com", "Another tool",
				[]byte("{}"), []byte("{}"), "paid", nil, nil, nil, []byte("{}"), now, now))

	entities, err := repo.FindByNormalizedName(context.Background(), "tool")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "id-1", entities[0].ID)
	assert.Equal(t, "id-2", entities[1].ID)
	assert.Empty(t, entities[0].LogoURL)
	assert.Nil(t, entities[0].AvgRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	now := time.Now()
	entity := &models.Entity{
		ID:           "id-1",
		Name:         "Tool",
		WebsiteURL:   "https://tool.example.com",
		Description:  "A tool",
		CategoryIDs:  []string{"cat-1"},
		PricingModel: models.PricingFree,
		SourceSites:  []string{"toolify.ai"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO entities`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entity))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_Insert_DuplicateURL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec(`INSERT INTO entities`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "entities_website_url_key"})

	err := repo.Insert(context.Background(), &models.Entity{
		ID:         "id-1",
		Name:       "Tool",
		WebsiteURL: "https://tool.example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec(`UPDATE entities`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Entity{ID: "ghost", Name: "Tool"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_ListBySource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	now := time.Now()
	mock.ExpectQuery(`SELECT(.|\n)*FROM entities(.|\n)*WHERE \$1 = ANY\(source_sites\)`).
		WithArgs("toolify.ai", 50).
		WillReturnRows(entityRows().AddRow(
			"id-1", "Tool", "tool", "https://tool.example.com", "A tool",
			[]byte("{}"), []byte("{}"), "free", nil, nil, nil, []byte("{toolify.ai}"), now, now,
		))

	entities, err := repo.ListBySource(context.Background(), "toolify.ai", 50)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "id-1", entities[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRepository(db, testhelpers.NewTestLogger())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM entities`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
