package ingestion

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
)

var whitespaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// normalizeWhitespace collapses runs of horizontal whitespace and caps blank
// lines at one, per spec.md §4.3(a).
func normalizeWhitespace(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = whitespaceRun.ReplaceAllString(content, " ")
	content = blankLineRun.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// sentenceBoundary locates the sentence breaks chunk() prefers over a hard
// mid-word cut; paragraph breaks are found directly as "\n\n".
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// chunk splits normalized content into pieces of approximately size
// characters with overlap characters repeated between consecutive chunks.
// A cut point is pushed back to the nearest paragraph break, failing that the
// nearest sentence break, failing that the nearest space; a window with none
// of these is cut at size characters, which can split a word.
func chunk(content string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	if len(content) <= size {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := start + size
		if end >= len(content) {
			chunks = append(chunks, strings.TrimSpace(content[start:]))
			break
		}

		cut := findBreak(content, start, end)
		chunks = append(chunks, strings.TrimSpace(content[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findBreak finds the best cut point in (start, end], preferring a
// paragraph break, then a sentence break, then a space, falling back to end
// itself rather than cutting mid-word only if no whitespace exists at all.
func findBreak(content string, start, end int) int {
	window := content[start:end]

	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		return start + idx + 2
	}

	if loc := lastSentenceBoundary(window); loc > 0 {
		return start + loc
	}

	if idx := strings.LastIndexByte(window, ' '); idx > 0 {
		return start + idx + 1
	}

	return end
}

func lastSentenceBoundary(window string) int {
	matches := sentenceBoundary.FindAllStringIndex(window, -1)
	if len(matches) == 0 {
		return -1
	}
	last := matches[len(matches)-1]
	return last[1]
}
