// Package tokenizer estimates and converts token counts for text passed to
// embedding and LLM calls, so callers can respect provider token limits
// before making a request.
package tokenizer

import "context"

// Estimator estimates the number of tokens a string of text will consume.
type Estimator interface {
	// EstimateText estimates the number of tokens in the given text.
	EstimateText(ctx context.Context, text string) (int, error)
}

// Encoder converts text into token sequences.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]int, error)
}

// Decoder converts token sequences back into text.
type Decoder interface {
	Decode(ctx context.Context, tokens []int) (string, error)
}

// Tokenizer combines encoding and decoding capabilities.
type Tokenizer interface {
	Encoder
	Decoder
}
