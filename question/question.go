// Package question implements C8: the question generator. It wraps C5
// (balanced context retrieval) and C7 (question generation), validates
// every candidate question against the retrieved context, and tops up
// short batches before returning.
package question

import (
	"financebuddy/core/retrieval"
)

// Question is a validated, stably-identified generated question.
type Question struct {
	ID               string
	QuestionText     string
	Options          map[string]string
	CorrectAnswer    string
	Explanation      string
	SourceReferences []string
	Difficulty       string
}

// GenerationStats reports how a Generate call resolved (spec.md §4.8's
// "returns (questions, generationStats, context)").
type GenerationStats struct {
	RequestedCount int
	GeneratedCount int
	DroppedCount   int
	TopUpRounds    int
	ContextSize    int
}

// Result bundles a Generate call's full return value.
type Result struct {
	Questions []Question
	Stats     GenerationStats
	Context   []retrieval.Candidate
}
