// Package ingestion turns raw document submissions into persisted,
// searchable records. The pipeline advances each document through
// chunking, contextual enrichment, dual embedding, and metadata
// extraction, then commits the whole generation atomically. Documents
// are processed concurrently on a bounded pool while submissions for
// the same document are serialized.
package ingestion
