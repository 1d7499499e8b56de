package recall

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/schema"
	"github.com/poiesic/recall/search"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.ChunkRepository())
		assert.NotNil(t, db.MetadataRepository())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create reindexer", func(t *testing.T) {
		reindexer := db.NewReindexer(nil, os.Stderr)
		require.NotNil(t, reindexer)
	})
}

const e2eConfig = `
[[collection]]
id = "notes"
name = "Meeting notes"

[collection.fields.status]
source_field = "Status"
type = "single_choice"
filterable = true
`

// TestDatabase_IngestAndSearch exercises the whole stack: submit a
// document through the pipeline, then find it back through the searcher.
func TestDatabase_IngestAndSearch(t *testing.T) {
	registry, err := schema.Load(strings.NewReader(e2eConfig))
	require.NoError(t, err)

	db, err := NewDatabase("",
		WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithRegistry(registry),
	)
	require.NoError(t, err)
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithEmbedderOptions(ingestion.WithRateLimit(1000)),
	)
	require.NoError(t, err)
	defer pipeline.Release()

	content := strings.Repeat("the search engine indexes meeting notes and answers questions ", 30)
	ctx := context.Background()
	id, err := pipeline.Process(ctx, ingestion.SubmitRequest{
		ExternalId:   "note-1",
		CollectionId: "notes",
		Title:        "Search Engine Notes",
		Content:      content,
		Properties: map[string]any{
			"Status": map[string]any{"name": "Published"},
		},
	})
	require.NoError(t, err)

	state, _, err := pipeline.Status(ctx, "note-1")
	require.NoError(t, err)
	require.Equal(t, core.StatePersisted, state)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)

	// The mock embedder is deterministic, so embedding the exact stored
	// content again yields a perfectly matching query vector.
	response, err := searcher.Search(ctx, search.Request{
		QueryText:     content,
		CollectionIDs: []string{"notes"},
		Filters: []search.Predicate{
			{Field: "status", Op: search.OpEquals, Value: "Published"},
		},
		MinSimilarity: 0.99,
	})
	require.NoError(t, err)

	require.NotEmpty(t, response.Hits)
	assert.Equal(t, id, response.Hits[0].DocumentId)
	assert.Equal(t, "Search Engine Notes", response.Hits[0].Title)
}
