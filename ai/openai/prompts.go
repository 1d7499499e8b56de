package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/recall/ai"
)

const situatePromptTemplate = `You place document excerpts in context for a retrieval system.

You will be given the opening of a document and one excerpt taken from
somewhere inside it. Write one or two short sentences that say where the
excerpt sits in the document and what it is about, so the excerpt can be
understood on its own.

Rules:
- Answer with the context sentences only. No preamble, no quotation marks,
  no markdown.
- Never repeat or paraphrase the excerpt text itself.
- Mention the document's subject and, when given, the section the excerpt
  belongs to.
- Stay under 60 words.`

const summarizePromptTemplate = `You write abstracts for a retrieval system.

You will be given a document. Write a single paragraph of at most 120
words that states what the document is about and the main points it
makes.

Rules:
- Answer with the abstract only. No preamble, no headings, no markdown.
- Write in the third person. Never address the reader.
- Prefer concrete nouns from the document over generic phrasing.`

// buildSituateUserPrompt renders the user message for chunk enrichment.
func buildSituateUserPrompt(chunk ai.ChunkContext) string {
	var b strings.Builder
	if chunk.Title != "" {
		fmt.Fprintf(&b, "Document title: %s\n", chunk.Title)
	}
	if chunk.Section != "" {
		fmt.Fprintf(&b, "Excerpt section: %s\n", chunk.Section)
	}
	fmt.Fprintf(&b, "\nDocument opening:\n%s\n", chunk.DocumentHead)
	fmt.Fprintf(&b, "\nExcerpt:\n%s\n", chunk.ChunkText)
	return b.String()
}

// buildSummarizeUserPrompt renders the user message for document summaries.
func buildSummarizeUserPrompt(title, content string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "Document title: %s\n\n", title)
	}
	b.WriteString(content)
	return b.String()
}
