package prompt

import (
	"fmt"
	"strings"

	"financebuddy/core/retrieval"
)

// Snippet is one enumerated, labeled entry in a context block.
type Snippet struct {
	Index  int
	Source string
	Title  string
	Text   string
}

// ContextBlock renders a retrieval result set into the enumerated,
// source-labeled snippet listing every template family embeds (spec.md
// §4.6). Order is preserved from candidates.
func ContextBlock(candidates []retrieval.Candidate) string {
	if len(candidates) == 0 {
		return "(no context available)"
	}

	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] source=%s title=%q\n%s\n\n", i+1, c.Document.Source, c.Document.Title, c.Document.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Snippets converts candidates into Snippet values, numbered the same way as
// ContextBlock, for callers that want structured access rather than the
// rendered block.
func Snippets(candidates []retrieval.Candidate) []Snippet {
	snippets := make([]Snippet, len(candidates))
	for i, c := range candidates {
		snippets[i] = Snippet{Index: i + 1, Source: c.Document.Source, Title: c.Document.Title, Text: c.Document.Content}
	}
	return snippets
}
