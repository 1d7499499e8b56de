package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text in model tokens for budgeting decisions.
// Implementations must be safe for concurrent use.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a BPE encoding matching the
// embedding model's tokenizer.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the named encoding,
// e.g. "cl100k_base".
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// HeuristicCounter approximates token counts without a tokenizer:
// one token per four characters of each word, minimum one per word.
// Close enough for budgeting, and requires no encoding data.
type HeuristicCounter struct{}

// Count approximates the number of tokens in text.
func (HeuristicCounter) Count(text string) int {
	total := 0
	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		total += (n + 3) / 4
	}
	return total
}
