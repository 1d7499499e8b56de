// Package chunk splits raw document text into ordered, semantically
// bounded, size-budgeted chunks.
//
// The Chunker splits on strong structural boundaries first (headings and
// paragraph breaks), merges undersized fragments up to the token budget,
// and recursively splits oversized fragments at progressively weaker
// boundaries (paragraph, sentence, hard cut) until each fits. Every
// non-first chunk repeats roughly the trailing overlap window of its
// predecessor. Documents below the minimum threshold skip chunking
// entirely and are embedded at the document level.
package chunk
