// Package reindex regenerates stored embeddings after an embedding
// model change. It walks every persisted document, reembeds the
// document content and summary along with each chunk's plain and
// contextual texts, and atomically replaces the document's generation.
// Chunk boundaries, enrichment blurbs, and extracted metadata are
// reused as stored.
package reindex
