package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository, storage.MetadataRepository) {
	t.Helper()
	docRepo, chunkRepo, metaRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		metaRepo.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo, chunkRepo, metaRepo
}

func newTestDocument(externalId, collectionId string) *core.Document {
	return &core.Document{
		Id:           core.IDFromContent(externalId),
		ExternalId:   externalId,
		CollectionId: collectionId,
		Title:        "Test Document",
		Content:      "some content for " + externalId,
		ContentType:  core.ContentTypePlainText,
		ContentHash:  core.HashContent("some content for " + externalId),
		State:        core.StatePersisted,
	}
}

func newTestChunks(documentId core.ID, count int) []core.Chunk {
	chunks := make([]core.Chunk, count)
	pos := 0
	for i := range chunks {
		chunks[i] = core.Chunk{
			DocumentId:    documentId,
			Seq:           i,
			Start:         pos,
			End:           pos + 10,
			Text:          "chunk text",
			TokenCount:    2,
			ContentVector: []float32{1, 0, 0},
		}
		pos += 10
	}
	return chunks
}

func TestPutAndGetDocument(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	_, err := docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)
	assert.False(t, doc.InsertedAt.IsZero())
	assert.False(t, doc.UpdatedAt.IsZero())

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.ExternalId, got.ExternalId)
	assert.Equal(t, doc.CollectionId, got.CollectionId)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, core.StatePersisted, got.State)
}

func TestGetDocumentNotFound(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)

	_, err := docRepo.GetDocument(context.Background(), core.ID(404))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutDocumentPreservesInsertedAt(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	_, err := docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)
	inserted := doc.InsertedAt

	doc.InsertedAt = time.Time{}
	doc.Title = "Renamed"
	_, err = docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, inserted, got.InsertedAt)
	assert.Equal(t, "Renamed", got.Title)
}

func TestReplaceDocumentSwapsWholeGeneration(t *testing.T) {
	docRepo, chunkRepo, metaRepo := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	record := &core.MetadataRecord{
		DocumentId:   doc.Id,
		CollectionId: "tasks",
		Fields: map[string]core.FieldValue{
			"status": {Type: core.FieldTypeText, Text: "Draft"},
		},
	}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 3), record))

	chunks, err := chunkRepo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Second generation with fewer chunks and different metadata.
	doc.Content = "edited content"
	record2 := &core.MetadataRecord{
		DocumentId:   doc.Id,
		CollectionId: "tasks",
		Fields: map[string]core.FieldValue{
			"status": {Type: core.FieldTypeText, Text: "Published"},
		},
	}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 2), record2))

	chunks, err = chunkRepo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 2, "previous generation chunks must be gone")

	meta, err := metaRepo.GetMetadata(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "Published", meta.Fields["status"].Text)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "edited content", got.Content)
}

func TestReplaceDocumentWithNilMetadataClearsRecord(t *testing.T) {
	docRepo, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	record := &core.MetadataRecord{DocumentId: doc.Id, CollectionId: "tasks", Fields: map[string]core.FieldValue{}}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 1), record))

	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 1), nil))

	_, err := metaRepo.GetMetadata(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReplaceDocumentMovesCollections(t *testing.T) {
	docRepo, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	record := &core.MetadataRecord{DocumentId: doc.Id, CollectionId: "tasks", Fields: map[string]core.FieldValue{}}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 2), record))

	// Same external id re-ingested under a different collection.
	doc.CollectionId = "archive"
	record2 := &core.MetadataRecord{DocumentId: doc.Id, CollectionId: "archive", Fields: map[string]core.FieldValue{}}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 2), record2))

	ids, err := docRepo.GetDocumentIDsByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, ids, "old collection must not list the moved document")

	ids, err = docRepo.GetDocumentIDsByCollection(ctx, "archive")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, doc.Id, ids[0])

	records, err := metaRepo.GetMetadataByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, records, "old collection must not list the moved metadata")

	records, err = metaRepo.GetMetadataByCollection(ctx, "archive")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPutDocumentMovesCollectionIndex(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	_, err := docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)

	doc.CollectionId = "archive"
	_, err = docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)

	ids, err := docRepo.GetDocumentIDsByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = docRepo.GetDocumentIDsByCollection(ctx, "archive")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestDeleteDocumentCascades(t *testing.T) {
	docRepo, chunkRepo, metaRepo := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	record := &core.MetadataRecord{DocumentId: doc.Id, CollectionId: "tasks", Fields: map[string]core.FieldValue{}}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 2), record))

	require.NoError(t, docRepo.DeleteDocument(ctx, doc.Id))

	_, err := docRepo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err := chunkRepo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = metaRepo.GetMetadata(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := docRepo.GetDocumentIDsByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetDocumentIDsByCollection(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	for _, ext := range []string{"a", "b", "c"} {
		_, err := docRepo.PutDocument(ctx, newTestDocument(ext, "tasks"))
		require.NoError(t, err)
	}
	_, err := docRepo.PutDocument(ctx, newTestDocument("other", "notes"))
	require.NoError(t, err)

	ids, err := docRepo.GetDocumentIDsByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	ids, err = docRepo.GetDocumentIDsByCollection(ctx, "notes")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestFindSimilarDocuments(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	near := newTestDocument("near", "tasks")
	near.ContentVector = []float32{1, 0, 0}
	far := newTestDocument("far", "tasks")
	far.ContentVector = []float32{0, 1, 0}
	_, err := docRepo.PutDocument(ctx, near)
	require.NoError(t, err)
	_, err = docRepo.PutDocument(ctx, far)
	require.NoError(t, err)

	results, err := docRepo.FindSimilar(ctx, []float32{1, 0, 0}, storage.VectorFieldContent, 0.5, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near.Id, results[0].Document.Id)
	assert.Equal(t, core.SignalDocumentContent, results[0].Signal)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestFindSimilarDocumentsHonorsFilter(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("near", "tasks")
	doc.ContentVector = []float32{1, 0, 0}
	_, err := docRepo.PutDocument(ctx, doc)
	require.NoError(t, err)

	results, err := docRepo.FindSimilar(ctx, []float32{1, 0, 0}, storage.VectorFieldContent, 0.0, 10,
		func(id core.ID) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilarDocumentsSummaryFieldSkipsUnsummarized(t *testing.T) {
	docRepo, _, _ := newTestRepos(t)
	ctx := context.Background()

	summarized := newTestDocument("long", "tasks")
	summarized.ContentVector = []float32{0, 1, 0}
	summarized.Summary = "an abstract"
	summarized.SummaryVector = []float32{1, 0, 0}
	short := newTestDocument("short", "tasks")
	short.ContentVector = []float32{1, 0, 0}
	_, err := docRepo.PutDocument(ctx, summarized)
	require.NoError(t, err)
	_, err = docRepo.PutDocument(ctx, short)
	require.NoError(t, err)

	results, err := docRepo.FindSimilar(ctx, []float32{1, 0, 0}, storage.VectorFieldSummary, 0.5, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, summarized.Id, results[0].Document.Id)
	assert.Equal(t, core.SignalDocumentSummary, results[0].Signal)
}
