// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunk

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/poiesic/recall/core"
)

const (
	// DefaultMaxTokens is the upper token budget per chunk.
	DefaultMaxTokens = 1000
	// DefaultMinTokens is the threshold below which a document is not
	// chunked at all and relies on its document-level embedding.
	DefaultMinTokens = 100
	// DefaultOverlapTokens is the trailing window each chunk repeats
	// from its predecessor.
	DefaultOverlapTokens = 100
)

// Chunker splits document content into ordered chunks under a token
// budget. Core spans are gapless; the overlap window only extends a
// chunk's start backwards into its predecessor.
type Chunker struct {
	maxTokens     int
	minTokens     int
	overlapTokens int
	counter       TokenCounter
	logger        *slog.Logger
}

type ChunkerOption func(*Chunker)

// WithBudget overrides the chunk token budgets.
func WithBudget(maxTokens, minTokens, overlapTokens int) ChunkerOption {
	return func(c *Chunker) {
		c.maxTokens = maxTokens
		c.minTokens = minTokens
		c.overlapTokens = overlapTokens
	}
}

// WithTokenCounter overrides the token counter.
func WithTokenCounter(counter TokenCounter) ChunkerOption {
	return func(c *Chunker) {
		c.counter = counter
	}
}

// WithChunkerLogger sets the logger used for split diagnostics.
func WithChunkerLogger(logger *slog.Logger) ChunkerOption {
	return func(c *Chunker) {
		c.logger = logger.With("component", "chunker")
	}
}

// NewChunker creates a Chunker with default budgets and a heuristic
// token counter unless overridden.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		minTokens:     DefaultMinTokens,
		overlapTokens: DefaultOverlapTokens,
		counter:       HeuristicCounter{},
		logger:        slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fragment is a pre-overlap piece of the document. Spans are rune
// offsets and consecutive fragments share a boundary.
type fragment struct {
	start   int
	end     int
	tokens  int
	section string
}

type span struct {
	start int
	end   int
}

// Split breaks content into chunks whose core spans cover the whole
// document without gaps. Documents under the minimum budget return an
// empty slice: they are searchable through document-level vectors only.
// Chunk sequence numbers run from zero in document order.
func (c *Chunker) Split(documentId core.ID, content string, contentType core.ContentType) ([]core.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if c.counter.Count(content) < c.minTokens {
		return []core.Chunk{}, nil
	}

	runes := []rune(content)
	merged := c.merge(c.fragments(runes, contentType))

	chunks := make([]core.Chunk, len(merged))
	for i, f := range merged {
		start := f.start
		if i > 0 {
			start = c.walkBack(runes, f.start, merged[i-1].start)
		}
		text := string(runes[start:f.end])
		chunks[i] = core.Chunk{
			DocumentId: documentId,
			Seq:        i,
			Start:      start,
			End:        f.end,
			Text:       text,
			Section:    f.section,
			TokenCount: c.counter.Count(text),
		}
	}
	c.logger.Debug("split document", "documentId", documentId, "chunks", len(chunks))
	return chunks, nil
}

// fragments cuts the document at structural boundaries. Each block
// span reaches to the start of the next block so whitespace between
// blocks is never lost.
func (c *Chunker) fragments(runes []rune, contentType core.ContentType) []fragment {
	type blockStart struct {
		pos     int
		section string
	}

	var starts []blockStart
	section := ""
	prevBlank := true
	lineStart := 0
	n := len(runes)

	for lineStart < n {
		lineEnd := lineStart
		for lineEnd < n && runes[lineEnd] != '\n' {
			lineEnd++
		}
		trimmed := strings.TrimSpace(string(runes[lineStart:lineEnd]))

		switch {
		case trimmed == "":
			prevBlank = true
		case contentType == core.ContentTypeMarkdown && isHeadingLine(trimmed):
			section = headingText(trimmed)
			starts = append(starts, blockStart{lineStart, section})
			prevBlank = false
		case prevBlank:
			starts = append(starts, blockStart{lineStart, section})
			prevBlank = false
		}
		lineStart = lineEnd + 1
	}

	if len(starts) == 0 {
		starts = append(starts, blockStart{0, ""})
	}
	// Leading whitespace belongs to the first block.
	starts[0].pos = 0

	var frags []fragment
	for i, bs := range starts {
		end := n
		if i+1 < len(starts) {
			end = starts[i+1].pos
		}
		frags = append(frags, c.splitOversized(runes, bs.pos, end, bs.section)...)
	}
	return frags
}

// splitOversized returns the span as a single fragment when it fits
// the budget, otherwise packs sentences greedily and hard-cuts any
// sentence that alone exceeds the budget.
func (c *Chunker) splitOversized(runes []rune, start, end int, section string) []fragment {
	tokens := c.counter.Count(string(runes[start:end]))
	if tokens <= c.maxTokens {
		return []fragment{{start, end, tokens, section}}
	}

	var frags []fragment
	pieceStart := start
	pieceTokens := 0
	for _, sent := range sentenceSpans(runes, start, end) {
		st := c.counter.Count(string(runes[sent.start:sent.end]))
		if st > c.maxTokens {
			if pieceTokens > 0 {
				frags = append(frags, fragment{pieceStart, sent.start, pieceTokens, section})
			}
			frags = append(frags, c.hardCut(runes, sent.start, sent.end, section)...)
			pieceStart = sent.end
			pieceTokens = 0
			continue
		}
		if pieceTokens > 0 && pieceTokens+st > c.maxTokens {
			frags = append(frags, fragment{pieceStart, sent.start, pieceTokens, section})
			pieceStart = sent.start
			pieceTokens = 0
		}
		pieceTokens += st
	}
	if pieceStart < end {
		frags = append(frags, fragment{pieceStart, end, pieceTokens, section})
	}
	return frags
}

// sentenceSpans cuts [start, end) at sentence terminators and line
// breaks. Trailing whitespace rides with the sentence it follows so
// consecutive spans stay gapless.
func sentenceSpans(runes []rune, start, end int) []span {
	var spans []span
	s := start
	i := start
	for i < end {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			j := i + 1
			for j < end && unicode.IsSpace(runes[j]) {
				j++
			}
			spans = append(spans, span{s, j})
			s = j
			i = j
			continue
		}
		i++
	}
	if s < end {
		spans = append(spans, span{s, end})
	}
	return spans
}

// hardCut splits a span with no usable sentence boundaries at word
// boundaries, keeping each piece under the budget.
func (c *Chunker) hardCut(runes []rune, start, end int, section string) []fragment {
	var frags []fragment
	pieceStart := start
	pieceTokens := 0
	i := start
	for i < end {
		wordStart := i
		for wordStart < end && unicode.IsSpace(runes[wordStart]) {
			wordStart++
		}
		wordEnd := wordStart
		for wordEnd < end && !unicode.IsSpace(runes[wordEnd]) {
			wordEnd++
		}
		if wordEnd == wordStart {
			break
		}
		wt := c.counter.Count(string(runes[wordStart:wordEnd]))
		if wt == 0 {
			wt = 1
		}
		if pieceTokens > 0 && pieceTokens+wt > c.maxTokens {
			frags = append(frags, fragment{pieceStart, wordStart, pieceTokens, section})
			pieceStart = wordStart
			pieceTokens = 0
		}
		pieceTokens += wt
		i = wordEnd
	}
	if pieceStart < end {
		frags = append(frags, fragment{pieceStart, end, pieceTokens, section})
	}
	return frags
}

// merge packs consecutive fragments into chunks up to the token
// budget, then folds an undersized tail into its predecessor when it
// still fits.
func (c *Chunker) merge(frags []fragment) []fragment {
	if len(frags) == 0 {
		return nil
	}
	var merged []fragment
	cur := frags[0]
	for _, f := range frags[1:] {
		if cur.tokens+f.tokens <= c.maxTokens {
			cur.end = f.end
			cur.tokens += f.tokens
			continue
		}
		merged = append(merged, cur)
		cur = f
	}
	merged = append(merged, cur)

	if n := len(merged); n >= 2 {
		last, prev := merged[n-1], merged[n-2]
		if last.tokens < c.minTokens && prev.tokens+last.tokens <= c.maxTokens {
			prev.end = last.end
			prev.tokens += last.tokens
			merged[n-2] = prev
			merged = merged[:n-1]
		}
	}
	return merged
}

// walkBack extends a chunk start backwards word by word until roughly
// overlapTokens of the predecessor's tail is included. It never
// crosses the predecessor's own start.
func (c *Chunker) walkBack(runes []rune, pos, floor int) int {
	if c.overlapTokens <= 0 {
		return pos
	}
	start := pos
	i := pos
	tokens := 0
	for i > floor && tokens < c.overlapTokens {
		for i > floor && unicode.IsSpace(runes[i-1]) {
			i--
		}
		wordEnd := i
		for i > floor && !unicode.IsSpace(runes[i-1]) {
			i--
		}
		if i == wordEnd {
			break
		}
		wt := c.counter.Count(string(runes[i:wordEnd]))
		if wt == 0 {
			wt = 1
		}
		tokens += wt
		start = i
	}
	return start
}
