package ingestion

import (
	"regexp"
	"strings"

	"financebuddy/core/document"
)

// qaMarkers and regulationMarkers drive InferType's heuristic when a source
// document does not declare its own type (spec.md §4.4).
var qaMarkers = []string{"question:", "q:", "answer:", "a:", "qa"}

var regulationMarkers = []string{"regulation", "rule", "section", "shall", "sec"}

// InferType guesses a document.Type from its path and content when the
// source does not declare one. Checked in order: Q/A markers, then
// regulation markers, defaulting to textbook. A marker matches only at word
// boundaries, so "sec" does not match inside "securities". Matches
// readers.TypeInferrer.
func InferType(source, title, content string) document.Type {
	haystack := strings.ToLower(source + " " + title + " " + content)

	for _, marker := range qaMarkers {
		if containsMarker(haystack, marker) {
			return document.TypeQAPair
		}
	}
	for _, marker := range regulationMarkers {
		if containsMarker(haystack, marker) {
			return document.TypeRegulation
		}
	}
	return document.TypeTextbook
}

func containsMarker(haystack, marker string) bool {
	pattern := `\b` + regexp.QuoteMeta(marker)
	if last := marker[len(marker)-1]; last >= 'a' && last <= 'z' {
		pattern += `\b`
	}
	return regexp.MustCompile(pattern).MatchString(haystack)
}
