package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/recall/ai"
)

// MockEnricher is a test double for ai.Contextualizer and ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockEnricher struct {
	// SituateFunc is called by Situate if set.
	// If nil, uses default deterministic behavior.
	SituateFunc func(ctx context.Context, chunk ai.ChunkContext) (string, error)

	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default deterministic behavior.
	SummarizeFunc func(ctx context.Context, title, content string) (string, error)

	situateCount   int
	summarizeCount int
}

// NewMockEnricher creates a mock enricher with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via function fields.
func NewMockEnricher() *MockEnricher {
	return &MockEnricher{}
}

// Situate produces a deterministic context blurb.
// Default behavior: names the title and section of the chunk.
func (m *MockEnricher) Situate(ctx context.Context, chunk ai.ChunkContext) (string, error) {
	m.situateCount++

	if m.SituateFunc != nil {
		return m.SituateFunc(ctx, chunk)
	}

	title := chunk.Title
	if title == "" {
		title = "the document"
	}
	if chunk.Section != "" {
		return fmt.Sprintf("From the %q section of %s.", chunk.Section, title), nil
	}
	return fmt.Sprintf("An excerpt from %s.", title), nil
}

// Summarize produces a deterministic summary.
// Default behavior: returns the first 30 words of the content.
func (m *MockEnricher) Summarize(ctx context.Context, title, content string) (string, error) {
	m.summarizeCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, title, content)
	}

	words := strings.Fields(content)
	if len(words) > 30 {
		words = words[:30]
	}
	return strings.Join(words, " "), nil
}

// SituateCount returns the number of times Situate was called.
func (m *MockEnricher) SituateCount() int {
	return m.situateCount
}

// SummarizeCount returns the number of times Summarize was called.
func (m *MockEnricher) SummarizeCount() int {
	return m.summarizeCount
}

// Reset clears the call counts and custom functions.
func (m *MockEnricher) Reset() {
	m.situateCount = 0
	m.summarizeCount = 0
	m.SituateFunc = nil
	m.SummarizeFunc = nil
}
