package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

var _ Provider = (*StubProvider)(nil)

// StubProvider is a deterministic Provider for tests and for property-based
// checks per spec.md §8.1 ("property test against a stub provider that
// returns deterministic vectors"). Equal text always produces equal vectors;
// different texts are extremely unlikely to collide.
type StubProvider struct {
	dimensions int
}

func NewStubProvider(dimensions int) *StubProvider {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &StubProvider{dimensions: dimensions}
}

func (s *StubProvider) Dimensions() int {
	return s.dimensions
}

func (s *StubProvider) Embed(_ context.Context, text string) ([]float64, error) {
	return deterministicVector(text, s.dimensions), nil
}

func (s *StubProvider) EmbedBatch(_ context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	for i, t := range texts {
		results[i] = Result{Vector: deterministicVector(t, s.dimensions)}
	}
	return results, nil
}

// deterministicVector derives a unit vector from text by seeding one FNV
// hash per dimension with the dimension index, so distinct dimensions are
// not simple scalar multiples of each other.
func deterministicVector(text string, dims int) []float64 {
	vec := make([]float64, dims)
	var norm float64

	for i := 0; i < dims; i++ {
		h := fnv.New64a()
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		_, _ = h.Write([]byte(text))
		v := float64(h.Sum64()%2000) / 1000.0 - 1.0 // in [-1, 1)
		vec[i] = v
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
