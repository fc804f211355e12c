package llm

import (
	"context"

	"financebuddy/core/apperr"
	"financebuddy/core/prompt"
)

// unavailableAdapter fails every call with KindUpstreamUnavailable. It lets
// the server start without an LLM provider configured (ENABLE_LLM_FALLBACK)
// instead of refusing to boot: question generation simply can't succeed,
// but C9's explanation generator treats any adapter error as a trigger for
// its own deterministic fallback template, so explanations still work.
type unavailableAdapter struct{}

// NewUnavailableAdapter returns an Adapter with no working LLM behind it.
func NewUnavailableAdapter() Adapter {
	return unavailableAdapter{}
}

func (unavailableAdapter) GenerateQuestions(context.Context, prompt.QuestionParams) ([]Question, error) {
	return nil, apperr.New(apperr.KindUpstreamUnavailable, "no LLM adapter configured")
}

func (unavailableAdapter) GenerateAnswer(context.Context, prompt.AnswerParams) (AnswerResult, error) {
	return AnswerResult{}, apperr.New(apperr.KindUpstreamUnavailable, "no LLM adapter configured")
}

func (unavailableAdapter) GenerateExplanation(context.Context, prompt.ExplanationParams) (ExplanationResult, error) {
	return ExplanationResult{}, apperr.New(apperr.KindUpstreamUnavailable, "no LLM adapter configured")
}

func (unavailableAdapter) GenerateFollowupResponse(context.Context, prompt.FollowupParams) (string, error) {
	return "", apperr.New(apperr.KindUpstreamUnavailable, "no LLM adapter configured")
}
