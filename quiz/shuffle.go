package quiz

import (
	"math/rand/v2"

	"financebuddy/core/question"
)

// shuffle returns questions in a seeded random order so the same seed
// reproduces the same ordering (spec.md §4.13's "seed reported in
// metadata for reproducibility").
func shuffle(questions []question.Question, seed int64) []question.Question {
	out := make([]question.Question, len(questions))
	copy(out, questions)

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
