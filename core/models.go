package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are derived from the external document id so that
// re-ingesting the same source document always addresses the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical input always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent returns a hex-encoded BLAKE2b digest of text.
// Used to detect unchanged content between ingestion runs so embeddings
// can be reused instead of recomputed.
func HashContent(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ContentType classifies the structure of a document's raw text.
type ContentType int

const (
	// ContentTypePlainText is unstructured prose.
	ContentTypePlainText ContentType = iota + 1
	// ContentTypeMarkdown is text with markdown structure (headings, lists, fences).
	ContentTypeMarkdown
)

// DocumentState tracks a document through the ingestion pipeline.
// Transitions are strictly forward except StateFailed, which is
// reachable from any state.
type DocumentState int

const (
	// StateReceived means the document was accepted but not yet processed.
	StateReceived DocumentState = iota + 1
	// StateChunking means the document is being split into chunks.
	StateChunking
	// StateEmbedding means embeddings are being generated.
	StateEmbedding
	// StateMetadataExtraction means metadata is being extracted.
	StateMetadataExtraction
	// StatePersisted means the document and all derived records are stored.
	StatePersisted
	// StateFailed means processing stopped; StateReason carries the cause.
	StateFailed
)

// String returns the lowercase name of the state.
func (s DocumentState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateChunking:
		return "chunking"
	case StateEmbedding:
		return "embedding"
	case StateMetadataExtraction:
		return "metadata_extraction"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether moving from s to next is a legal
// pipeline transition. StateFailed is reachable from any state; all
// other transitions must move strictly forward.
func (s DocumentState) CanTransitionTo(next DocumentState) bool {
	if next == StateFailed {
		return true
	}
	return next == s+1 && next <= StatePersisted
}

// Document is one canonical text unit from one source collection.
type Document struct {
	Id            ID
	ExternalId    string // stable id assigned by the workspace source
	CollectionId  string
	Title         string
	Content       string
	ContentType   ContentType
	CreatedAt     time.Time // authored timestamp from the source
	ModifiedAt    time.Time // last modification timestamp from the source
	ContentVector []float32
	Summary       string // present only for documents above the token ceiling
	SummaryVector []float32
	TokenCount    int
	MediaRefs     []string // placeholder references to non-text blocks
	ContentHash   string   // BLAKE2b of Content at last successful embedding
	State         DocumentState
	StateReason   string // failure reason code when State == StateFailed
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Chunk is an ordered slice of a Document's content.
// (DocumentId, Seq) is unique; Seq values are gapless from 0.
// Prev/next neighbors are addressed by Seq-1/Seq+1 lookups rather than
// stored references.
type Chunk struct {
	DocumentId    ID
	Seq           int
	Start         int // rune offset into the document content, inclusive
	End           int // rune offset into the document content, exclusive
	Text          string
	Context       string // synthesized relational blurb, empty when unenriched
	Section       string // nearest enclosing heading, empty for unstructured text
	TokenCount    int
	Enriched      bool
	ContentVector []float32
	ContextVector []float32 // embedding of Context + Text, empty when unenriched
}

// HasContextVector reports whether the chunk carries a contextual embedding.
func (c *Chunk) HasContextVector() bool {
	return len(c.ContextVector) > 0
}

// FieldType is the closed set of declared metadata field types.
type FieldType int

const (
	FieldTypeText FieldType = iota + 1
	FieldTypeRichText
	FieldTypeNumber
	FieldTypeSingleChoice
	FieldTypeMultiChoice
	FieldTypeDate
	FieldTypeBool
)

// String returns the configuration-file spelling of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "text"
	case FieldTypeRichText:
		return "rich_text"
	case FieldTypeNumber:
		return "number"
	case FieldTypeSingleChoice:
		return "single_choice"
	case FieldTypeMultiChoice:
		return "multi_choice"
	case FieldTypeDate:
		return "date"
	case FieldTypeBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// FieldValue is one extracted metadata value tagged with its declared type.
// Only the member matching Type is meaningful.
type FieldValue struct {
	Type   FieldType
	Text   string
	Number float64
	Labels []string // ordered labels for multi-choice fields
	Date   time.Time
	Bool   bool
}

// MetadataRecord is the typed, queryable field set extracted from a
// Document's source properties. Every key present in Fields was declared
// in the collection's configuration.
type MetadataRecord struct {
	DocumentId   ID
	CollectionId string
	Fields       map[string]FieldValue
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// ConfigSnapshot records the configuration a collection's metadata was
// extracted under, for drift detection between runs.
type ConfigSnapshot struct {
	CollectionId string
	Hash         string
	LoadedAt     time.Time
}

// ResultKind discriminates document-level from chunk-level search hits.
type ResultKind int

const (
	KindDocument ResultKind = iota + 1
	KindChunk
)

// String returns the wire spelling of the result kind.
func (k ResultKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// MatchSignal identifies which similarity signal produced a search hit.
type MatchSignal int

const (
	SignalDocumentContent MatchSignal = iota + 1
	SignalDocumentSummary
	SignalChunkContent
	SignalChunkContextual
	// SignalChunkFused marks a chunk scored from both its plain and
	// contextual embeddings.
	SignalChunkFused
)

// String returns the wire spelling of the signal.
func (s MatchSignal) String() string {
	switch s {
	case SignalDocumentContent:
		return "document_content"
	case SignalDocumentSummary:
		return "document_summary"
	case SignalChunkContent:
		return "chunk_content"
	case SignalChunkContextual:
		return "chunk_contextual"
	case SignalChunkFused:
		return "chunk_fused"
	default:
		return "unknown"
	}
}

// SearchResult is a transient scored candidate produced by the query engine.
type SearchResult struct {
	Kind               ResultKind
	Document           *Document
	Chunk              *Chunk // nil for document-level hits
	Score              float32
	Signal             MatchSignal
	HasAdjacentContext bool
}
