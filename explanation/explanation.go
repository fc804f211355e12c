// Package explanation implements C9: generating an explanation for a
// question that doesn't already carry one, falling back to a deterministic
// template when generation or validation fails.
package explanation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"financebuddy/core/llm"
	"financebuddy/core/prompt"
	"financebuddy/core/retrieval"
	"financebuddy/core/vectorstore"
)

const (
	contextLimit    = 5
	contextMinScore = 0.5

	defaultStyle     = "concise"
	defaultAudience  = "exam candidate"
	defaultMaxLength = 500
)

// Result is one Explain call's outcome. UsedFallback is observable output
// metadata per spec.md §4.9: "this fallback is observable in output
// metadata."
type Result struct {
	Explanation      string
	SourceReferences []string
	UsedFallback     bool
}

// Config wires C9 to its collaborators.
type Config struct {
	Retriever *retrieval.Retriever
	Adapter   llm.Adapter

	Style     string
	Audience  string
	MaxLength int
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("explanation: config is nil")
	}
	if c.Retriever == nil {
		return errors.New("explanation: retriever is required")
	}
	if c.Adapter == nil {
		return errors.New("explanation: adapter is required")
	}
	return nil
}

// Generator is C9.
type Generator struct {
	retriever *retrieval.Retriever
	adapter   llm.Adapter
	style     string
	audience  string
	maxLength int
}

func NewGenerator(cfg *Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	style := cfg.Style
	if style == "" {
		style = defaultStyle
	}
	audience := cfg.Audience
	if audience == "" {
		audience = defaultAudience
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	return &Generator{
		retriever: cfg.Retriever,
		adapter:   cfg.Adapter,
		style:     style,
		audience:  audience,
		maxLength: maxLength,
	}, nil
}

// Explain implements spec.md §4.9. correctAnswerKey is the option letter
// (A-D); correctAnswerText is that option's text, used only by the
// fallback template.
func (g *Generator) Explain(ctx context.Context, topic, questionText, correctAnswerKey, correctAnswerText string) Result {
	query := strings.TrimSpace(topic + " " + questionText)

	context_, err := g.retriever.Basic(ctx, query, vectorstore.SearchOptions{Limit: contextLimit, MinScore: contextMinScore})
	if err != nil {
		return g.fallback(correctAnswerKey, correctAnswerText)
	}

	result, err := g.adapter.GenerateExplanation(ctx, prompt.ExplanationParams{
		Question:      questionText,
		CorrectAnswer: correctAnswerKey,
		Context:       context_,
		Style:         g.style,
		Audience:      g.audience,
		MaxLength:     g.maxLength,
	})
	if err != nil {
		return g.fallback(correctAnswerKey, correctAnswerText)
	}

	if err := validate(result, g.maxLength, context_); err != nil {
		return g.fallback(correctAnswerKey, correctAnswerText)
	}

	return Result{Explanation: result.Explanation, SourceReferences: result.SourceReferences}
}

func (g *Generator) fallback(correctAnswerKey, correctAnswerText string) Result {
	return Result{
		Explanation:  fmt.Sprintf("The correct answer is %s: %s.", correctAnswerKey, correctAnswerText),
		UsedFallback: true,
	}
}
