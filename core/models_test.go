package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		id1 := IDFromContent("page-abc-123")
		id2 := IDFromContent("page-abc-123")
		assert.Equal(t, id1, id2)
	})

	t.Run("distinct inputs produce distinct ids", func(t *testing.T) {
		assert.NotEqual(t, IDFromContent("page-a"), IDFromContent("page-b"))
	})

	t.Run("empty input is valid", func(t *testing.T) {
		assert.NotZero(t, IDFromContent(""))
	})
}

func TestHashContent(t *testing.T) {
	h1 := HashContent("some document body")
	h2 := HashContent("some document body")
	h3 := HashContent("some document body!")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 32) // 16 bytes hex encoded
}

func TestDocumentStateTransitions(t *testing.T) {
	tests := []struct {
		name string
		from DocumentState
		to   DocumentState
		ok   bool
	}{
		{"received to chunking", StateReceived, StateChunking, true},
		{"chunking to embedding", StateChunking, StateEmbedding, true},
		{"embedding to metadata", StateEmbedding, StateMetadataExtraction, true},
		{"metadata to persisted", StateMetadataExtraction, StatePersisted, true},
		{"failed from received", StateReceived, StateFailed, true},
		{"failed from embedding", StateEmbedding, StateFailed, true},
		{"failed from persisted", StatePersisted, StateFailed, true},
		{"no skipping states", StateReceived, StateEmbedding, false},
		{"no backwards", StateEmbedding, StateChunking, false},
		{"no leaving failed", StateFailed, StateChunking, false},
		{"persisted is terminal except failed", StatePersisted, StateReceived, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
			err := ValidateTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidState)
			}
		})
	}
}

func TestDocumentCodecRoundTrip(t *testing.T) {
	// Construct via UnixMicro so the location matches what the codec
	// reconstructs after a round trip.
	now := time.UnixMicro(1771060013000000)
	doc := Document{
		Id:            IDFromContent("page-1"),
		ExternalId:    "page-1",
		CollectionId:  "notes",
		Title:         "Quarterly planning",
		Content:       "# Goals\n\nShip the retrieval engine.",
		ContentType:   ContentTypeMarkdown,
		CreatedAt:     now.Add(-48 * time.Hour),
		ModifiedAt:    now,
		ContentVector: []float32{0.1, 0.2, 0.3},
		Summary:       "Planning notes.",
		SummaryVector: []float32{0.4, 0.5},
		TokenCount:    9,
		MediaRefs:     []string{"image:block-77"},
		ContentHash:   HashContent("# Goals\n\nShip the retrieval engine."),
		State:         StatePersisted,
		InsertedAt:    now,
		UpdatedAt:     now,
	}

	bs := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, bs)
	require.Equal(t, len(bs), n)

	got, n, err := DocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, doc, got)
}

func TestChunkCodecRoundTrip(t *testing.T) {
	chunk := Chunk{
		DocumentId:    IDFromContent("page-1"),
		Seq:           2,
		Start:         180,
		End:           420,
		Text:          "the overlapping middle of the document",
		Context:       "This section covers rollout risks within the planning notes.",
		Section:       "Risks",
		TokenCount:    7,
		Enriched:      true,
		ContentVector: []float32{1, 0, 0},
		ContextVector: []float32{0, 1, 0},
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, bs)

	got, _, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
	assert.True(t, got.HasContextVector())
}

func TestMetadataRecordCodecRoundTrip(t *testing.T) {
	now := time.UnixMicro(1767323045000000)
	rec := MetadataRecord{
		DocumentId:   IDFromContent("page-9"),
		CollectionId: "tasks",
		Fields: map[string]FieldValue{
			"status":   {Type: FieldTypeSingleChoice, Text: "Published"},
			"priority": {Type: FieldTypeNumber, Number: 2},
			"tags":     {Type: FieldTypeMultiChoice, Labels: []string{"infra", "search"}},
			"due":      {Type: FieldTypeDate, Date: now},
			"archived": {Type: FieldTypeBool, Bool: false},
		},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	bs := make([]byte, MetadataRecordMUS.Size(rec))
	MetadataRecordMUS.Marshal(rec, bs)

	got, _, err := MetadataRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
