package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func TestGetChunksOrderedBySeq(t *testing.T) {
	docRepo, chunkRepo, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 5), nil))

	chunks, err := chunkRepo.GetChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
	}
}

func TestGetChunkBySeq(t *testing.T) {
	docRepo, chunkRepo, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 3), nil))

	chunk, err := chunkRepo.GetChunk(ctx, doc.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.Seq)

	_, err = chunkRepo.GetChunk(ctx, doc.Id, 9)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindSimilarChunksFusesBothVectors(t *testing.T) {
	docRepo, chunkRepo, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	chunks := []core.Chunk{
		{
			DocumentId:    doc.Id,
			Seq:           0,
			Start:         0,
			End:           10,
			Text:          "enriched",
			Enriched:      true,
			ContentVector: []float32{1, 0, 0},
			ContextVector: []float32{0, 1, 0},
		},
		{
			DocumentId:    doc.Id,
			Seq:           1,
			Start:         10,
			End:           20,
			Text:          "plain",
			ContentVector: []float32{0, 1, 0},
		},
	}
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, chunks, nil))

	weights := storage.ChunkScoreWeights{Content: 0.3, Contextual: 0.7}
	results, err := chunkRepo.FindSimilar(ctx, []float32{0, 1, 0}, weights, 0.0, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The unenriched chunk scores its plain similarity of 1.0 and ranks
	// above the enriched chunk's fused 0.7*1.0 + 0.3*0.0.
	assert.Equal(t, 1, results[0].Chunk.Seq)
	assert.Equal(t, core.SignalChunkContent, results[0].Signal)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	assert.Equal(t, 0, results[1].Chunk.Seq)
	assert.Equal(t, core.SignalChunkFused, results[1].Signal)
	assert.InDelta(t, 0.7, results[1].Score, 1e-6)
}

func TestFindSimilarChunksThresholdAndFilter(t *testing.T) {
	docRepo, chunkRepo, _ := newTestRepos(t)
	ctx := context.Background()

	doc := newTestDocument("page-1", "tasks")
	require.NoError(t, docRepo.ReplaceDocument(ctx, doc, newTestChunks(doc.Id, 2), nil))

	weights := storage.ChunkScoreWeights{Content: 0.3, Contextual: 0.7}

	results, err := chunkRepo.FindSimilar(ctx, []float32{0, 0, 1}, weights, 0.5, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results, "orthogonal query must score below threshold")

	results, err = chunkRepo.FindSimilar(ctx, []float32{1, 0, 0}, weights, 0.5, 10,
		func(id core.ID) bool { return id != doc.Id })
	require.NoError(t, err)
	assert.Empty(t, results, "filter must exclude the document's chunks")
}
