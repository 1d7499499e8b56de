package search

import (
	"github.com/poiesic/recall/core"
)

// Request is one hybrid search query.
type Request struct {
	// QueryText is the natural-language query. Must not be empty.
	QueryText string

	// CollectionIDs restricts hits to the named collections.
	// Empty means all collections.
	CollectionIDs []string

	// Filters are metadata predicates combined with AND. A document must
	// satisfy every predicate before any of its content is scored.
	Filters []Predicate

	// Limit caps the number of hits returned. Zero means DefaultLimit.
	Limit int

	// MinSimilarity is the score floor. Candidates below it are dropped,
	// never padded back in. Zero means DefaultMinSimilarity.
	MinSimilarity float32
}

// Hit is one ranked search result. Chunk hits are addressed by
// (DocumentId, Seq); document hits carry Seq == -1.
type Hit struct {
	Kind       core.ResultKind
	DocumentId core.ID
	Seq        int
	Title      string
	Snippet    string
	Score      float32
	Signal     core.MatchSignal

	// HasAdjacentContext reports whether neighboring chunks exist that a
	// consumer could fetch for more surrounding text.
	HasAdjacentContext bool
}

// Response is the ordered result set for one Request.
type Response struct {
	Hits []Hit

	// Partial is set when at least one similarity signal missed its
	// deadline or failed; the hits present are still correctly ranked.
	Partial bool
}
