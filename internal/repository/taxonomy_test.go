package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/tool-ingestor/internal/models"
	"github.com/jonesrussell/tool-ingestor/internal/testhelpers"
)

func TestTaxonomyRepository_ListTerms(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaxonomyRepository(db, testhelpers.NewTestLogger())

	mock.ExpectQuery(`SELECT(.|\n)*FROM taxonomy_terms`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "display_name", "aliases"}).
			AddRow("cat-1", "category", "AI Chatbot", []byte("{Chatbots,Bots}")).
			AddRow("tag-1", "tag", "API", []byte("{}")))

	terms, err := repo.ListTerms(context.Background())
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, "cat-1", terms[0].ID)
	assert.Equal(t, models.TaxonomyCategory, terms[0].Type)
	assert.Equal(t, "AI Chatbot", terms[0].DisplayName)
	assert.Equal(t, []string{"Chatbots", "Bots"}, terms[0].Aliases)

	assert.Equal(t, models.TaxonomyTag, terms[1].Type)
	assert.Empty(t, terms[1].Aliases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxonomyRepository_UpsertMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaxonomyRepository(db, testhelpers.NewTestLogger())

	mock.ExpectExec(`INSERT INTO missing_taxonomy_items`).
		WithArgs("category", "Quantum Widgets").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertMissing(context.Background(), models.TaxonomyCategory, "Quantum Widgets")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxonomyRepository_ListMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaxonomyRepository(db, testhelpers.NewTestLogger())

	seen := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT(.|\n)*FROM missing_taxonomy_items(.|\n)*ORDER BY occurrence_count DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"type", "raw_name", "first_seen_at", "occurrence_count"}).
			AddRow("category", "Quantum Widgets", seen, 17).
			AddRow("tag", "blazing fast", seen, 3))

	items, err := repo.ListMissing(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, models.TaxonomyCategory, items[0].Type)
	assert.Equal(t, "Quantum Widgets", items[0].RawName)
	assert.Equal(t, 17, items[0].OccurrenceCount)
	assert.Equal(t, seen, items[0].FirstSeenAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
