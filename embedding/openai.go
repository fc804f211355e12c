package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIConfig configures an OpenAI-backed embedding Provider.
type OpenAIConfig struct {
	// APIKey is required.
	APIKey string
	// Model is the OpenAI embedding model name, e.g. "text-embedding-3-small".
	Model string
	// Dimensions is the provider-reported vector length. Required: the
	// provider does not ask OpenAI for it up front.
	Dimensions int
	// RequestOptions are applied before APIKey, so APIKey always wins.
	RequestOptions []option.RequestOption
}

func (c *OpenAIConfig) validate() error {
	if c == nil {
		return errors.New("embedding: config is nil")
	}
	if c.APIKey == "" {
		return errors.New("embedding: api key is required")
	}
	if c.Model == "" {
		return errors.New("embedding: model is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("embedding: dimensions must be > 0")
	}
	return nil
}

// OpenAIProvider is a Provider backed by the OpenAI embeddings endpoint.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
	retry      retryConfig
}

func NewOpenAIProvider(cfg *OpenAIConfig) (*OpenAIProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := append(append([]option.RequestOption{}, cfg.RequestOptions...), option.WithAPIKey(cfg.APIKey))
	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client:     &client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		retry:      defaultRetryConfig(),
	}, nil
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	results, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Vector, nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openai.EmbeddingNewParams{
		Model: p.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Dimensions:     openai.Int(int64(p.dimensions)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}

	var resp *openai.CreateEmbeddingResponse
	err := withRetry(ctx, p.retry, func() error {
		var callErr error
		resp, callErr = p.client.Embeddings.New(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: openai call failed: %w", err)
	}

	results := make([]Result, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) >= len(results) {
			continue
		}
		results[d.Index] = Result{Vector: d.Embedding}
	}

	return results, nil
}
