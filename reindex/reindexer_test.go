package reindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository, storage.MetadataRepository) {
	t.Helper()
	docs, chunks, metadata, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return docs, chunks, metadata
}

// staleVector marks a vector as pre-reindex; the mock embedder never
// produces it.
func staleVector() []float32 {
	return []float32{1, 0, 0}
}

func seedDocument(t *testing.T, docs storage.DocumentRepository, externalId string, state core.DocumentState, chunkCount int) *core.Document {
	t.Helper()

	id := core.IDFromContent(externalId)
	doc := &core.Document{
		Id:            id,
		ExternalId:    externalId,
		CollectionId:  "notes",
		Title:         "Doc " + externalId,
		Content:       fmt.Sprintf("content of %s", externalId),
		ContentType:   core.ContentTypePlainText,
		ContentVector: staleVector(),
		State:         state,
	}

	chunks := make([]core.Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = core.Chunk{
			DocumentId:    id,
			Seq:           i,
			Start:         i * 5,
			End:           (i + 1) * 5,
			Text:          fmt.Sprintf("chunk %d of %s", i, externalId),
			TokenCount:    4,
			ContentVector: staleVector(),
		}
		if i%2 == 0 {
			chunks[i].Enriched = true
			chunks[i].Context = "An excerpt."
			chunks[i].ContextVector = staleVector()
		}
	}

	record := &core.MetadataRecord{
		DocumentId:   id,
		CollectionId: "notes",
		Fields: map[string]core.FieldValue{
			"status": {Type: core.FieldTypeSingleChoice, Text: "Published"},
		},
	}

	require.NoError(t, docs.ReplaceDocument(context.Background(), doc, chunks, record))
	return doc
}

func TestReindexerRefreshesAllVectors(t *testing.T) {
	docs, chunks, metadata := newTestRepos(t)
	ctx := context.Background()

	seedDocument(t, docs, "doc-a", core.StatePersisted, 3)
	seedDocument(t, docs, "doc-b", core.StatePersisted, 2)

	embedder := mock.NewMockEmbedder()
	var buf bytes.Buffer
	reindexer := NewReindexer(docs, chunks, metadata, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &buf)

	require.NoError(t, reindexer.Run(ctx))

	for _, externalId := range []string{"doc-a", "doc-b"} {
		id := core.IDFromContent(externalId)

		doc, err := docs.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, staleVector(), doc.ContentVector, "document vector should be refreshed")

		stored, err := chunks.GetChunks(ctx, id)
		require.NoError(t, err)
		require.NotEmpty(t, stored)
		for _, c := range stored {
			assert.NotEqual(t, staleVector(), c.ContentVector, "chunk vector should be refreshed")
			if c.Enriched {
				assert.NotEqual(t, staleVector(), c.ContextVector, "contextual vector should be refreshed")
			} else {
				assert.Empty(t, c.ContextVector)
			}
		}

		record, err := metadata.GetMetadata(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Published", record.Fields["status"].Text, "metadata should survive reindexing")
	}

	assert.Contains(t, buf.String(), "Reindexing complete")
}

func TestReindexerSkipsUnpersistedDocuments(t *testing.T) {
	docs, chunks, metadata := newTestRepos(t)
	ctx := context.Background()

	seedDocument(t, docs, "doc-done", core.StatePersisted, 1)
	failed := seedDocument(t, docs, "doc-failed", core.StateFailed, 1)

	embedder := mock.NewMockEmbedder()
	var buf bytes.Buffer
	reindexer := NewReindexer(docs, chunks, metadata, embedder, nil, &buf)

	require.NoError(t, reindexer.Run(ctx))

	doc, err := docs.GetDocument(ctx, failed.Id)
	require.NoError(t, err)
	assert.Equal(t, staleVector(), doc.ContentVector, "failed documents keep their vectors")
}

func TestReindexerEmptyDatabase(t *testing.T) {
	docs, chunks, metadata := newTestRepos(t)

	embedder := mock.NewMockEmbedder()
	var buf bytes.Buffer
	reindexer := NewReindexer(docs, chunks, metadata, embedder, nil, &buf)

	require.NoError(t, reindexer.Run(context.Background()))
	assert.Contains(t, buf.String(), "No persisted documents")
}

func TestReindexerPropagatesEmbeddingFailure(t *testing.T) {
	docs, chunks, metadata := newTestRepos(t)

	seedDocument(t, docs, "doc-a", core.StatePersisted, 1)

	embedder := mock.NewMockEmbedder()
	down := errors.New("embedding host down")
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, down
	}

	var buf bytes.Buffer
	reindexer := NewReindexer(docs, chunks, metadata, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &buf)

	err := reindexer.Run(context.Background())
	assert.ErrorIs(t, err, down)
}

func TestDocumentIteratorBatches(t *testing.T) {
	docs, _, _ := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedDocument(t, docs, fmt.Sprintf("doc-%d", i), core.StatePersisted, 0)
	}

	iterator := NewDocumentIterator(docs, 2)

	var batches []int
	err := iterator.ForEach(ctx, func(batch []*core.Document) error {
		batches = append(batches, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batches)
}

func TestDocumentIteratorStopsOnError(t *testing.T) {
	docs, _, _ := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedDocument(t, docs, fmt.Sprintf("doc-%d", i), core.StatePersisted, 0)
	}

	iterator := NewDocumentIterator(docs, 2)

	boom := errors.New("boom")
	calls := 0
	err := iterator.ForEach(ctx, func([]*core.Document) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
