// Package quiz implements C13: transforming a study session's questions
// into the stable external quiz schema (spec.md §4.13).
package quiz

import (
	"strconv"
	"time"

	"financebuddy/core/apperr"
	"financebuddy/core/question"
)

// optionOrder is the fixed A..D order the external schema's answers array
// follows.
var optionOrder = []string{"A", "B", "C", "D"}

// Question is one exported question.
type Question struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	Correct  int      `json:"correct"`
}

// Metadata carries export provenance alongside the question list.
type Metadata struct {
	Topic        string            `json:"topic"`
	Difficulty   string            `json:"difficulty,omitempty"`
	SourceSystem string            `json:"sourceSystem"`
	ExportedAt   time.Time         `json:"exportedAt"`
	Explanations map[string]string `json:"explanations,omitempty"`
	ShuffleSeed  *int64            `json:"shuffleSeed,omitempty"`
}

// Quiz is the external schema C13 produces (spec.md §4.13). Its shape is a
// stable contract, not an internal type, so fields are tagged explicitly.
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Metadata  Metadata   `json:"metadata"`
}

// Options controls a single export (spec.md §4.13).
type Options struct {
	IncludeExplanations bool
	DifficultyFilter    string
	MaxQuestions        int
	RandomizeOrder      bool
	Deduplicate         bool
}

const sourceSystem = "FinanceBuddy"

// Export transforms questions into a Quiz. explanations maps a question's ID
// to its session explanation text (spec.md §4.9); it may be nil when
// includeExplanations is false or the session hasn't reached that step yet.
// now is injected so exports are deterministic under test.
func Export(title, topic, difficulty string, questions []question.Question, explanations map[string]string, opts Options, now time.Time) (Quiz, error) {
	filtered := questions
	if opts.DifficultyFilter != "" {
		filtered = filterByDifficulty(filtered, opts.DifficultyFilter)
	}
	if opts.Deduplicate {
		filtered = dedupeByText(filtered)
	}

	var seed *int64
	if opts.RandomizeOrder {
		s := now.UnixNano()
		filtered = shuffle(filtered, s)
		seed = &s
	}

	if opts.MaxQuestions > 0 && len(filtered) > opts.MaxQuestions {
		filtered = filtered[:opts.MaxQuestions]
	}

	if len(filtered) == 0 {
		return Quiz{}, apperr.New(apperr.KindValidation, "EMPTY_EXPORT: no questions survived filtering")
	}

	exported := make([]Question, 0, len(filtered))
	exportedExplanations := make(map[string]string)
	for i, q := range filtered {
		answers, correct, err := toAnswers(q)
		if err != nil {
			return Quiz{}, err
		}
		exported = append(exported, Question{
			Question: q.QuestionText,
			Answers:  answers,
			Correct:  correct,
		})
		if opts.IncludeExplanations {
			if text, ok := explanations[q.ID]; ok {
				exportedExplanations[strconv.Itoa(i)] = text
			}
		}
	}

	metadata := Metadata{
		Topic:        topic,
		Difficulty:   difficulty,
		SourceSystem: sourceSystem,
		ExportedAt:   now,
		ShuffleSeed:  seed,
	}
	if opts.IncludeExplanations {
		metadata.Explanations = exportedExplanations
	}

	return Quiz{
		Title:     title,
		Questions: exported,
		Metadata:  metadata,
	}, nil
}

func toAnswers(q question.Question) ([]string, int, error) {
	answers := make([]string, 0, len(optionOrder))
	correct := -1
	for i, key := range optionOrder {
		text, ok := q.Options[key]
		if !ok {
			return nil, 0, apperr.New(apperr.KindValidation, "question "+q.ID+" is missing option "+key)
		}
		answers = append(answers, text)
		if key == q.CorrectAnswer {
			correct = i
		}
	}
	if correct < 0 {
		return nil, 0, apperr.New(apperr.KindValidation, "question "+q.ID+" has no matching correct answer")
	}
	return answers, correct, nil
}

func filterByDifficulty(questions []question.Question, difficulty string) []question.Question {
	out := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out
}

func dedupeByText(questions []question.Question) []question.Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := seen[q.QuestionText]; ok {
			continue
		}
		seen[q.QuestionText] = struct{}{}
		out = append(out, q)
	}
	return out
}
