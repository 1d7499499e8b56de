package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrMetadataRepositoryRequired is returned when a metadata repository is not provided.
	ErrMetadataRepositoryRequired = errors.New("metadata repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingService indicates the embedding service failed after all
	// retries. The owning document moves to StateFailed with a retryable
	// reason code.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrEmbeddingCountMismatch indicates the embedder returned a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// Failure reason codes recorded in Document.StateReason.
const (
	// ReasonEmptyContent marks a document whose content had nothing to
	// process. Not retryable without new content.
	ReasonEmptyContent = "empty_content"

	// ReasonEmbeddingFailed marks a document whose embedding generation
	// failed after retries. Retryable.
	ReasonEmbeddingFailed = "embedding_failed"

	// ReasonPersistFailed marks a document whose final transactional
	// write failed. Retryable.
	ReasonPersistFailed = "persist_failed"
)
