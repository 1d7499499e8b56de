package ai

// ChunkContext carries everything a Contextualizer needs to situate one
// chunk within its parent document. DocumentHead is a bounded slice of
// the document's opening text, not the full content, so prompts stay
// within model context windows.
type ChunkContext struct {
	// Title is the parent document's title. May be empty.
	Title string

	// Section is the nearest heading above the chunk. May be empty for
	// plain-text documents.
	Section string

	// DocumentHead is the opening portion of the document, truncated by
	// the caller to a token budget.
	DocumentHead string

	// ChunkText is the chunk body being situated.
	ChunkText string
}
