package llm

import (
	"context"

	"financebuddy/core/prompt"
)

// Adapter is C7. Implementations own provider-specific request/response
// translation and JSON-shape conformance; callers never see raw model text.
type Adapter interface {
	GenerateQuestions(ctx context.Context, params prompt.QuestionParams) ([]Question, error)
	GenerateAnswer(ctx context.Context, params prompt.AnswerParams) (AnswerResult, error)
	GenerateExplanation(ctx context.Context, params prompt.ExplanationParams) (ExplanationResult, error)
	GenerateFollowupResponse(ctx context.Context, params prompt.FollowupParams) (string, error)
}
