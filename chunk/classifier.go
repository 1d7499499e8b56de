package chunk

import (
	"regexp"
	"strings"

	"github.com/poiesic/recall/core"
)

var (
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	fencePattern   = regexp.MustCompile("(?m)^```")
	listPattern    = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+\S`)
)

// DetectContentType classifies raw text as markdown or plain prose.
// Markdown classification enables heading-aware section labels; plain
// text falls back to paragraph boundaries only.
func DetectContentType(text string) core.ContentType {
	if headingPattern.MatchString(text) || fencePattern.MatchString(text) {
		return core.ContentTypeMarkdown
	}
	// A couple of list items alone are enough structure to care about.
	if len(listPattern.FindAllStringIndex(text, 3)) >= 2 {
		return core.ContentTypeMarkdown
	}
	return core.ContentTypePlainText
}

var headingLinePattern = regexp.MustCompile(`^#{1,6}\s+`)

// isHeadingLine reports whether a trimmed line is a markdown heading.
func isHeadingLine(line string) bool {
	return headingLinePattern.MatchString(line)
}

// headingText strips the marker from a markdown heading line.
func headingText(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
}
