package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"financebuddy/core/apperr"
	"financebuddy/core/prompt"
)

// defaultCallTimeout is the per-call timeout spec.md §4.7 sets (30s).
const defaultCallTimeout = 30 * time.Second

// OpenAIConfig configures an OpenAI-backed Adapter.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RequestOptions []option.RequestOption
	CallTimeout    time.Duration
}

func (c *OpenAIConfig) validate() error {
	if c == nil {
		return errors.New("llm: config is nil")
	}
	if c.APIKey == "" {
		return errors.New("llm: api key is required")
	}
	if c.Model == "" {
		return errors.New("llm: model is required")
	}
	return nil
}

var _ Adapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter is C7 backed by the OpenAI chat completions endpoint.
type OpenAIAdapter struct {
	client      *openai.Client
	model       string
	callTimeout time.Duration
	retry       retryConfig
}

func NewOpenAIAdapter(cfg *OpenAIConfig) (*OpenAIAdapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := append(append([]option.RequestOption{}, cfg.RequestOptions...), option.WithAPIKey(cfg.APIKey))
	client := openai.NewClient(opts...)

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	return &OpenAIAdapter{
		client:      &client,
		model:       cfg.Model,
		callTimeout: callTimeout,
		retry:       defaultRetryConfig(),
	}, nil
}

// complete issues one chat completion call with a per-call timeout and
// returns the first choice's message content.
func (a *OpenAIAdapter) complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "llm: openai chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindGeneration, "llm: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// correctiveSuffix is appended to the user message on a schema-validation
// retry so the model sees exactly what it got wrong last time.
func correctiveSuffix(lastErr error) string {
	return fmt.Sprintf("\n\nYour previous response did not satisfy the required JSON contract: %v. Respond again with strictly conforming JSON and nothing else.", lastErr)
}

func (a *OpenAIAdapter) GenerateQuestions(ctx context.Context, params prompt.QuestionParams) ([]Question, error) {
	system, user, err := prompt.QuestionPrompt(params)
	if err != nil {
		return nil, fmt.Errorf("llm: rendering question prompt: %w", err)
	}

	var questions []Question
	var lastErr error
	err = withAdapterRetry(ctx, a.retry, func(attempt int) error {
		promptUser := user
		if attempt > 0 && lastErr != nil {
			promptUser += correctiveSuffix(lastErr)
		}

		content, callErr := a.complete(ctx, system, promptUser)
		if callErr != nil {
			lastErr = callErr
			return callErr
		}

		parsed, parseErr := parseQuestions(content)
		if parseErr != nil {
			lastErr = parseErr
			return parseErr
		}
		questions = parsed
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGeneration, "llm: generateQuestions exhausted retries", err)
	}
	return questions, nil
}

func (a *OpenAIAdapter) GenerateAnswer(ctx context.Context, params prompt.AnswerParams) (AnswerResult, error) {
	system, user, err := prompt.AnswerPrompt(params)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("llm: rendering answer prompt: %w", err)
	}

	var result AnswerResult
	var lastErr error
	err = withAdapterRetry(ctx, a.retry, func(attempt int) error {
		promptUser := user
		if attempt > 0 && lastErr != nil {
			promptUser += correctiveSuffix(lastErr)
		}

		content, callErr := a.complete(ctx, system, promptUser)
		if callErr != nil {
			lastErr = callErr
			return callErr
		}

		parsed, parseErr := parseAnswer(content)
		if parseErr != nil {
			lastErr = parseErr
			return parseErr
		}
		result = parsed
		return nil
	})
	if err != nil {
		return AnswerResult{}, apperr.Wrap(apperr.KindGeneration, "llm: generateAnswers exhausted retries", err)
	}
	return result, nil
}

func (a *OpenAIAdapter) GenerateExplanation(ctx context.Context, params prompt.ExplanationParams) (ExplanationResult, error) {
	system, user, err := prompt.ExplanationPrompt(params)
	if err != nil {
		return ExplanationResult{}, fmt.Errorf("llm: rendering explanation prompt: %w", err)
	}

	var result ExplanationResult
	var lastErr error
	err = withAdapterRetry(ctx, a.retry, func(attempt int) error {
		promptUser := user
		if attempt > 0 && lastErr != nil {
			promptUser += correctiveSuffix(lastErr)
		}

		content, callErr := a.complete(ctx, system, promptUser)
		if callErr != nil {
			lastErr = callErr
			return callErr
		}

		parsed, parseErr := parseExplanation(content)
		if parseErr != nil {
			lastErr = parseErr
			return parseErr
		}
		result = parsed
		return nil
	})
	if err != nil {
		return ExplanationResult{}, apperr.Wrap(apperr.KindGeneration, "llm: generateExplanation exhausted retries", err)
	}
	return result, nil
}

func (a *OpenAIAdapter) GenerateFollowupResponse(ctx context.Context, params prompt.FollowupParams) (string, error) {
	system, user, err := prompt.FollowupPrompt(params)
	if err != nil {
		return "", fmt.Errorf("llm: rendering followup prompt: %w", err)
	}

	var answer string
	var lastErr error
	err = withAdapterRetry(ctx, a.retry, func(attempt int) error {
		promptUser := user
		if attempt > 0 && lastErr != nil {
			promptUser += correctiveSuffix(lastErr)
		}

		content, callErr := a.complete(ctx, system, promptUser)
		if callErr != nil {
			lastErr = callErr
			return callErr
		}

		parsed, parseErr := parseFollowup(content)
		if parseErr != nil {
			lastErr = parseErr
			return parseErr
		}
		answer = parsed
		return nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, "llm: generateFollowupResponse exhausted retries", err)
	}
	return answer, nil
}
