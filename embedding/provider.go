// Package embedding implements C1: mapping text to fixed-dimension vectors,
// with batching and retry on transient failure.
package embedding

import "context"

// Result is one element of an EmbedBatch response. A batch element failure
// does not fail the whole batch; callers inspect Err per element.
type Result struct {
	Vector []float64
	Err    error
}

// Provider maps text to vectors. Implementations report a fixed dimension D
// that every returned vector satisfies.
type Provider interface {
	// Embed maps a single text to a vector.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch maps a batch of texts to vectors. The result preserves
	// input order and length; a single element's failure is carried in its
	// Result.Err rather than failing the call.
	EmbedBatch(ctx context.Context, texts []string) ([]Result, error)

	// Dimensions reports D, the fixed vector length this provider produces.
	Dimensions() int
}
