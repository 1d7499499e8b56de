package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
)

// words returns n space-separated four-character words, each exactly
// one token under the heuristic counter.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%03d", i%1000)
	}
	return strings.Join(parts, " ")
}

func paragraphs(count, wordsEach int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = words(wordsEach)
	}
	return strings.Join(parts, "\n\n")
}

func TestSplitEmptyContent(t *testing.T) {
	chunker := NewChunker()

	_, err := chunker.Split(1, "   \n\t  ", core.ContentTypePlainText)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestSplitShortDocumentSkipsChunking(t *testing.T) {
	chunker := NewChunker()

	chunks, err := chunker.Split(1, words(50), core.ContentTypePlainText)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitCoversContentWithoutGaps(t *testing.T) {
	chunker := NewChunker(WithBudget(200, 50, 20))
	content := "# Intro\n\n" + paragraphs(3, 80) + "\n\n## Details\n\n" + paragraphs(4, 90)

	chunks, err := chunker.Split(7, content, core.ContentTypeMarkdown)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	require.NoError(t, core.ValidateChunkSequence(chunks, len([]rune(content))))
	for _, chunk := range chunks {
		assert.Equal(t, core.ID(7), chunk.DocumentId)
		assert.LessOrEqual(t, chunk.TokenCount, 200+25, "chunk stays near budget after overlap")
	}
}

func TestSplitOverlapRepeatsPredecessorTail(t *testing.T) {
	chunker := NewChunker(WithBudget(1000, 100, 100))
	content := paragraphs(20, 250) // 5000 tokens

	chunks, err := chunker.Split(3, content, core.ContentTypePlainText)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 5)

	counter := HeuristicCounter{}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		require.Less(t, cur.Start, prev.End, "chunk %d starts inside its predecessor", i)

		overlapLen := prev.End - cur.Start
		prevRunes := []rune(prev.Text)
		curRunes := []rune(cur.Text)
		require.GreaterOrEqual(t, len(curRunes), overlapLen)
		assert.Equal(t,
			string(prevRunes[len(prevRunes)-overlapLen:]),
			string(curRunes[:overlapLen]),
			"chunk %d must open with chunk %d's tail", i, i-1)
		assert.InDelta(t, 100, counter.Count(string(curRunes[:overlapLen])), 5)
	}
}

func TestSplitSectionLabels(t *testing.T) {
	chunker := NewChunker(WithBudget(120, 20, 0))
	content := "# Setup\n\n" + words(100) + "\n\n# Teardown\n\n" + words(100)

	chunks, err := chunker.Split(11, content, core.ContentTypeMarkdown)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	assert.Equal(t, "Setup", chunks[0].Section)
	assert.Equal(t, "Teardown", chunks[len(chunks)-1].Section)
}

func TestSplitHardCutsUnbrokenParagraph(t *testing.T) {
	chunker := NewChunker(WithBudget(1000, 100, 0))
	// One paragraph, no sentence terminators anywhere.
	content := words(2500)

	chunks, err := chunker.Split(5, content, core.ContentTypePlainText)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.TokenCount, 1000)
	}
	require.NoError(t, core.ValidateChunkSequence(chunks, len([]rune(content))))
}

func TestSplitMergesUndersizedTail(t *testing.T) {
	chunker := NewChunker(WithBudget(300, 100, 0))
	// 250 + 40: the trailing paragraph alone is under the minimum and
	// fits the predecessor's remaining budget.
	content := words(250) + "\n\n" + words(40)

	chunks, err := chunker.Split(9, content, core.ContentTypePlainText)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, core.ContentTypeMarkdown, DetectContentType("# Title\n\nbody"))
	assert.Equal(t, core.ContentTypeMarkdown, DetectContentType("```go\ncode\n```"))
	assert.Equal(t, core.ContentTypeMarkdown, DetectContentType("- one\n- two\n"))
	assert.Equal(t, core.ContentTypePlainText, DetectContentType("Just a sentence. And another."))
}

func TestHeuristicCounter(t *testing.T) {
	counter := HeuristicCounter{}
	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("word"))
	assert.Equal(t, 2, counter.Count("word word"))
	assert.Equal(t, 3, counter.Count("considerable")) // 12 runes
}
