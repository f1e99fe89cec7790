package spiders

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

func writeLeadFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolify_leads.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLeadStream_ReadsRecords(t *testing.T) {
	path := writeLeadFile(t, `{"name":"Tool A","website_url":"https://a.example.com"}
{"name":"Tool B","website_url":"https://b.example.com","average_rating":4.5,"categories":["Chatbots","Writing"]}
`)

	stream, err := OpenLeadStream(path)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "Tool A", first.Get(models.FieldName))

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "Tool B", second.Get(models.FieldName))
	assert.Equal(t, "4.5", second.Get(models.FieldRating))
	assert.Equal(t, "Chatbots|Writing", second.Get(models.FieldCategories))

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLeadStream_SkipsBlankLines(t *testing.T) {
	path := writeLeadFile(t, `{"name":"Tool A","website_url":"https://a.example.com"}

{"name":"Tool B","website_url":"https://b.example.com"}
`)

	stream, err := OpenLeadStream(path)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLeadStream_MalformedLine(t *testing.T) {
	path := writeLeadFile(t, `{"name":"Tool A","website_url":"https://a.example.com"}
not json at all
{"name":"Tool C","website_url":"https://c.example.com"}
`)

	stream, err := OpenLeadStream(path)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.NoError(t, err)

	_, err = stream.Next()
	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 2")

	// The stream recovers: malformed lines are per-record failures.
	rec, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "Tool C", rec.Get(models.FieldName))
}

func TestLeadStream_MissingFile(t *testing.T) {
	_, err := OpenLeadStream(filepath.Join(t.TempDir(), "absent_leads.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLeadStream_EmptyFile(t *testing.T) {
	stream, err := OpenLeadStream(writeLeadFile(t, ""))
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFlatten(t *testing.T) {
	record := flatten(map[string]any{
		"name":    "Tool",
		"rating":  4.0,
		"active":  true,
		"tags":    []any{"a", "b", 3.0},
		"ignored": map[string]any{"nested": "object"},
	})

	assert.Equal(t, "Tool", record["name"])
	assert.Equal(t, "4", record["rating"])
	assert.Equal(t, "true", record["active"])
	assert.Equal(t, "a|b", record["tags"])
	_, ok := record["ignored"]
	assert.False(t, ok)
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"toolify", "taaft", "futuretools"}, Names())
	assert.True(t, IsKnown("toolify"))
	assert.False(t, IsKnown("unknown"))

	spider, ok := Lookup("futuretools")
	require.True(t, ok)
	assert.Equal(t, "futuretools.io", spider.SourceSite)

	assert.Equal(t, filepath.Join("/data", "taaft_leads.jsonl"), LeadsFile("/data", "taaft"))
}
