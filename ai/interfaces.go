package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Contextualizer situates a chunk within its parent document, producing
// a short context blurb that disambiguates the chunk when it is embedded
// in isolation.
// Implementations must be thread-safe for concurrent use.
type Contextualizer interface {
	// Situate generates a one or two sentence blurb describing where the
	// chunk sits in the document and what it is about. The blurb never
	// restates the chunk text itself.
	// Returns an error if generation fails; callers treat failure as
	// best-effort and fall back to the plain chunk.
	Situate(ctx context.Context, chunk ChunkContext) (string, error)
}

// Summarizer condenses a full document into a short abstract used for
// document-level summary embeddings.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize produces a compact summary of the document content.
	// Returns an error if generation fails.
	Summarize(ctx context.Context, title, content string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder,
// Contextualizer, and Summarizer instances, ensuring they share
// configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Contextualizer returns the chunk enrichment service.
	// The returned Contextualizer is safe for concurrent use.
	Contextualizer() Contextualizer

	// Summarizer returns the document summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
