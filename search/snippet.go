package search

import "strings"

// Stop words to filter out when locating query terms in content
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

const snippetWords = 40

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// makeSnippet returns a short excerpt of text windowed around the first
// occurrence of a query term, or the head of the text when no term
// appears. The window is word-aligned and elided with ellipses.
func makeSnippet(text, query string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	center := -1
	queryWords := make(map[string]bool)
	for _, qw := range tokenizeAndFilter(query) {
		queryWords[qw] = true
	}
	if len(queryWords) > 0 {
		for i, word := range words {
			cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
			if queryWords[cleaned] {
				center = i
				break
			}
		}
	}

	start := 0
	if center > snippetWords/2 {
		start = center - snippetWords/2
	}
	end := start + snippetWords
	if end > len(words) {
		end = len(words)
		if end-snippetWords > 0 {
			start = end - snippetWords
		} else {
			start = 0
		}
	}

	snippet := strings.Join(words[start:end], " ")
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(words) {
		snippet += "…"
	}
	return snippet
}
