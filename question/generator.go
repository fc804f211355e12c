package question

import (
	"context"
	"errors"
	"fmt"

	"financebuddy/core/apperr"
	"financebuddy/core/document"
	"financebuddy/core/document/id"
	"financebuddy/core/llm"
	"financebuddy/core/prompt"
	"financebuddy/core/retrieval"
	"financebuddy/core/vectorstore"
)

const (
	defaultMinRelevanceScore = 0.6
	defaultMaxTopUps         = 2
)

// Config wires C8 to its collaborators.
type Config struct {
	Retriever *retrieval.Retriever
	Adapter   llm.Adapter
	IDs       id.Generator

	// MinRelevanceScore floors the balanced-context retrieval
	// (spec.md §4.8, default 0.6).
	MinRelevanceScore float64

	// AllowFallbackWithoutContext lets Generate proceed with an empty
	// context instead of failing INSUFFICIENT_CONTEXT (spec.md §4.8).
	// Defaults to false: the adapter has nothing to ground questions in
	// otherwise.
	AllowFallbackWithoutContext bool

	// MaxTopUps bounds how many extra generation rounds backfill
	// questions dropped by validation (spec.md §4.8, default 2).
	MaxTopUps int
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("question: config is nil")
	}
	if c.Retriever == nil {
		return errors.New("question: retriever is required")
	}
	if c.Adapter == nil {
		return errors.New("question: adapter is required")
	}
	return nil
}

// Generator is C8.
type Generator struct {
	retriever         *retrieval.Retriever
	adapter           llm.Adapter
	ids               id.Generator
	minRelevanceScore float64
	allowFallback     bool
	maxTopUps         int
}

func NewGenerator(cfg *Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ids := cfg.IDs
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}

	minRelevanceScore := cfg.MinRelevanceScore
	if minRelevanceScore <= 0 {
		minRelevanceScore = defaultMinRelevanceScore
	}

	maxTopUps := cfg.MaxTopUps
	if maxTopUps <= 0 {
		maxTopUps = defaultMaxTopUps
	}

	return &Generator{
		retriever:         cfg.Retriever,
		adapter:           cfg.Adapter,
		ids:               ids,
		minRelevanceScore: minRelevanceScore,
		allowFallback:     cfg.AllowFallbackWithoutContext,
		maxTopUps:         maxTopUps,
	}, nil
}

// Generate implements spec.md §4.8's five-step contract.
func (g *Generator) Generate(ctx context.Context, topic string, count int, difficulty string) (Result, error) {
	if count <= 0 {
		count = 1
	}

	context_, err := g.retrieveBalancedContext(ctx, topic, count)
	if err != nil {
		return Result{}, fmt.Errorf("question: retrieving context: %w", err)
	}

	if len(context_) == 0 && !g.allowFallback {
		return Result{}, apperr.New(apperr.KindRetrievalDegraded, "INSUFFICIENT_CONTEXT: no context available for topic "+topic)
	}

	stats := GenerationStats{RequestedCount: count, ContextSize: len(context_)}

	accepted := make([]llm.Question, 0, count)
	needed := count

	for round := 0; round <= g.maxTopUps && needed > 0; round++ {
		if round > 0 {
			stats.TopUpRounds++
		}

		generated, err := g.adapter.GenerateQuestions(ctx, prompt.QuestionParams{
			Topic:      topic,
			Context:    context_,
			Count:      needed,
			Difficulty: difficulty,
		})
		if err != nil {
			return Result{}, fmt.Errorf("question: generating questions: %w", err)
		}

		for _, q := range generated {
			if err := validate(q, context_); err != nil {
				stats.DroppedCount++
				continue
			}
			accepted = append(accepted, q)
		}

		needed = count - len(accepted)
	}

	questions := make([]Question, 0, len(accepted))
	for _, q := range accepted {
		qid, err := g.ids.Generate(ctx, topic, q.QuestionText)
		if err != nil {
			return Result{}, fmt.Errorf("question: assigning id: %w", err)
		}
		questions = append(questions, Question{
			ID:               qid,
			QuestionText:     q.QuestionText,
			Options:          q.Options,
			CorrectAnswer:    q.CorrectAnswer,
			Explanation:      q.Explanation,
			SourceReferences: q.SourceReferences,
			Difficulty:       q.Difficulty,
		})
	}
	stats.GeneratedCount = len(questions)

	return Result{Questions: questions, Stats: stats, Context: context_}, nil
}

// retrieveBalancedContext sizes a Balanced retrieval to roughly 3*count
// (spec.md §4.8), splitting that budget across the corpus's three document
// types rather than requesting it all from one.
func (g *Generator) retrieveBalancedContext(ctx context.Context, topic string, count int) ([]retrieval.Candidate, error) {
	total := 3 * count
	if total < 3 {
		total = 3
	}
	quarter := total / 4
	if quarter < 1 {
		quarter = 1
	}

	minPerType := retrieval.MinPerType{
		document.TypeTextbook:   total - 2*quarter,
		document.TypeQAPair:     quarter,
		document.TypeRegulation: quarter,
	}

	candidates, _, err := g.retriever.Balanced(ctx, topic, minPerType, vectorstore.SearchOptions{MinScore: g.minRelevanceScore})
	return candidates, err
}
