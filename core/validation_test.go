package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	valid := &Document{ExternalId: "page-1", CollectionId: "notes"}
	assert.NoError(t, ValidateDocument(valid))

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{"nil document", nil, ErrInvalidDocument},
		{"missing external id", &Document{CollectionId: "notes"}, ErrEmptyExternalID},
		{"missing collection id", &Document{ExternalId: "page-1"}, ErrEmptyCollectionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateChunkSequence(t *testing.T) {
	t.Run("empty is valid", func(t *testing.T) {
		assert.NoError(t, ValidateChunkSequence(nil, 100))
	})

	t.Run("gapless coverage", func(t *testing.T) {
		chunks := []Chunk{
			{Seq: 0, Start: 0, End: 40},
			{Seq: 1, Start: 30, End: 80}, // overlaps predecessor by 10
			{Seq: 2, Start: 80, End: 100},
		}
		assert.NoError(t, ValidateChunkSequence(chunks, 100))
	})

	t.Run("sequence gap", func(t *testing.T) {
		chunks := []Chunk{
			{Seq: 0, Start: 0, End: 50},
			{Seq: 2, Start: 50, End: 100},
		}
		assert.ErrorIs(t, ValidateChunkSequence(chunks, 100), ErrChunkSequenceGap)
	})

	t.Run("span gap", func(t *testing.T) {
		chunks := []Chunk{
			{Seq: 0, Start: 0, End: 40},
			{Seq: 1, Start: 50, End: 100},
		}
		assert.ErrorIs(t, ValidateChunkSequence(chunks, 100), ErrChunkSpanGap)
	})

	t.Run("must start at zero", func(t *testing.T) {
		chunks := []Chunk{{Seq: 0, Start: 5, End: 100}}
		assert.ErrorIs(t, ValidateChunkSequence(chunks, 100), ErrChunkSpanGap)
	})

	t.Run("must end at content length", func(t *testing.T) {
		chunks := []Chunk{{Seq: 0, Start: 0, End: 90}}
		assert.ErrorIs(t, ValidateChunkSequence(chunks, 100), ErrChunkSpanGap)
	})

	t.Run("span outside content", func(t *testing.T) {
		chunks := []Chunk{{Seq: 0, Start: 0, End: 120}}
		assert.ErrorIs(t, ValidateChunkSequence(chunks, 100), ErrInvalidChunk)
	})
}

func TestValidateFieldType(t *testing.T) {
	for _, ft := range []FieldType{
		FieldTypeText, FieldTypeRichText, FieldTypeNumber,
		FieldTypeSingleChoice, FieldTypeMultiChoice, FieldTypeDate, FieldTypeBool,
	} {
		assert.NoError(t, ValidateFieldType(ft), ft.String())
	}

	assert.ErrorIs(t, ValidateFieldType(0), ErrInvalidFieldType)
	assert.ErrorIs(t, ValidateFieldType(FieldTypeBool+1), ErrInvalidFieldType)
}
