package storage

import (
	"context"

	"github.com/poiesic/recall/core"
)

// VectorField selects which document-level embedding a similarity scan
// compares against.
type VectorField int

const (
	// VectorFieldContent scans document content embeddings.
	VectorFieldContent VectorField = iota + 1
	// VectorFieldSummary scans document summary embeddings. Documents
	// without a summary vector are skipped.
	VectorFieldSummary
)

// ChunkScoreWeights blends a chunk's contextual and plain similarities
// into one score. Chunks without a contextual vector are scored on the
// plain similarity alone.
type ChunkScoreWeights struct {
	Content    float32
	Contextual float32
}

// IDFilter restricts a similarity scan to documents it admits.
// A nil filter admits everything.
type IDFilter func(id core.ID) bool

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// PutDocument upserts a document record and its collection index entry.
	// Sets InsertedAt on first write and refreshes UpdatedAt on every write.
	// Returns the document with timestamps populated.
	PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// DeleteDocument removes a document and every derived record: its
	// chunks, its metadata record, and its index entries.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// ReplaceDocument atomically replaces a document's full derived state
	// in one transaction: the document record, the complete chunk set,
	// and the metadata record. Prior chunks and metadata vanish with the
	// same commit that makes the new generation visible. A nil record
	// clears stored metadata.
	ReplaceDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk, record *core.MetadataRecord) error

	// GetDocumentIDsByCollection retrieves the IDs of all documents in a
	// collection, ordered by ID.
	GetDocumentIDsByCollection(ctx context.Context, collectionId string) ([]core.ID, error)

	// IterateDocuments calls fn for every stored document until fn
	// returns false or an error. Iteration order is unspecified.
	IterateDocuments(ctx context.Context, fn func(doc *core.Document) (bool, error)) error

	// FindSimilar finds documents whose selected embedding is similar to
	// the given vector. Only documents admitted by the filter and scoring
	// at least minSimilarity are returned, up to limit results, ordered
	// by similarity descending.
	FindSimilar(ctx context.Context, vector []float32, field VectorField, minSimilarity float32, limit int, allowed IDFilter) ([]*core.SearchResult, error)
}

// ChunkRepository provides operations for reading and scanning chunks.
// Chunks are written only through DocumentRepository.ReplaceDocument so
// a document's chunk set always belongs to exactly one generation.
type ChunkRepository interface {
	Repository

	// GetChunk retrieves one chunk by its (documentId, seq) address.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, documentId core.ID, seq int) (*core.Chunk, error)

	// GetChunks retrieves all chunks of a document ordered by sequence.
	GetChunks(ctx context.Context, documentId core.ID) ([]core.Chunk, error)

	// FindSimilar finds chunks similar to the given vector. Each chunk is
	// scored as weights.Contextual times its contextual similarity plus
	// weights.Content times its plain similarity; chunks without a
	// contextual vector use the plain similarity alone. Only chunks of
	// documents admitted by the filter and scoring at least minSimilarity
	// are returned, up to limit results, ordered by score descending.
	FindSimilar(ctx context.Context, vector []float32, weights ChunkScoreWeights, minSimilarity float32, limit int, allowed IDFilter) ([]*core.SearchResult, error)
}

// MetadataRepository provides operations for managing extracted metadata
// and the configuration snapshots it was extracted under.
type MetadataRepository interface {
	Repository

	// PutMetadata upserts the metadata record for a document.
	// Sets InsertedAt on first write and refreshes UpdatedAt on every write.
	PutMetadata(ctx context.Context, record *core.MetadataRecord) (*core.MetadataRecord, error)

	// GetMetadata retrieves the metadata record for a document.
	// Returns ErrNotFound if no record exists.
	GetMetadata(ctx context.Context, documentId core.ID) (*core.MetadataRecord, error)

	// GetMetadataByCollection retrieves every metadata record in a collection.
	GetMetadataByCollection(ctx context.Context, collectionId string) ([]*core.MetadataRecord, error)

	// PutConfigSnapshot records the configuration hash a collection was
	// last extracted under.
	PutConfigSnapshot(ctx context.Context, snapshot core.ConfigSnapshot) error

	// GetConfigSnapshot retrieves the last recorded configuration
	// snapshot for a collection.
	// Returns ErrNotFound if no snapshot exists.
	GetConfigSnapshot(ctx context.Context, collectionId string) (*core.ConfigSnapshot, error)
}
