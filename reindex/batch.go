package reindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/storage"
)

// BatchProcessor regenerates every embedding a batch of documents
// carries: the document content and summary vectors plus the plain and
// contextual vectors of each chunk. Chunk texts and contexts are reused
// as stored; only the vectors change.
type BatchProcessor struct {
	documents      storage.DocumentRepository
	chunks         storage.ChunkRepository
	metadata       storage.MetadataRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	metadata storage.MetadataRepository,
	embedder ai.Embedder,
	maxRetries int,
	retryBaseDelay time.Duration,
) *BatchProcessor {
	return &BatchProcessor{
		documents:      documents,
		chunks:         chunks,
		metadata:       metadata,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process reembeds a batch of documents and replaces each document's
// generation in the database. Vectors are normalized after embedding to
// ensure compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := bp.processDocument(ctx, doc); err != nil {
			return fmt.Errorf("document %d: %w", doc.Id, err)
		}
	}
	return nil
}

func (bp *BatchProcessor) processDocument(ctx context.Context, doc *core.Document) error {
	chunks, err := bp.chunks.GetChunks(ctx, doc.Id)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	texts := make([]string, 0, 2+2*len(chunks))
	texts = append(texts, doc.Content)
	if doc.Summary != "" {
		texts = append(texts, doc.Summary)
	}
	for i := range chunks {
		texts = append(texts, chunks[i].Text)
	}
	contextualIdx := make([]int, 0, len(chunks))
	for i := range chunks {
		if chunks[i].Enriched {
			texts = append(texts, chunks[i].Context+"\n\n"+chunks[i].Text)
			contextualIdx = append(contextualIdx, i)
		}
	}

	var embeddings [][]float32
	err = ingestion.RetryWithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	for i := range embeddings {
		embeddings[i] = ingestion.NormalizeVector(embeddings[i])
	}

	pos := 0
	doc.ContentVector = embeddings[pos]
	pos++
	if doc.Summary != "" {
		doc.SummaryVector = embeddings[pos]
		pos++
	}
	for i := range chunks {
		chunks[i].ContentVector = embeddings[pos]
		pos++
	}
	for _, i := range contextualIdx {
		chunks[i].ContextVector = embeddings[pos]
		pos++
	}

	// Carry the existing metadata record through the replace so the
	// refreshed generation keeps its extracted fields.
	record, err := bp.metadata.GetMetadata(ctx, doc.Id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	if err := bp.documents.ReplaceDocument(ctx, doc, chunks, record); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
