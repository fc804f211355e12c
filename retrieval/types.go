// Package retrieval implements C5: the context retriever and reranker. It
// sits on top of C1 (embedding) and C2 (vector store) and adds hybrid
// keyword scoring, balanced per-type fan-out, and a multi-signal reranker.
package retrieval

import (
	"financebuddy/core/document"
)

// Candidate is one retrieval hit moving through the pipeline: a document
// plus whatever score stage last touched it (vector, hybrid, or final rank
// score, depending on which function returned it).
type Candidate struct {
	Document *document.Document
	Score    float64
}

// RerankWeights are the caller-tunable weights in the final rank formula
// (spec.md §4.5): final = w_s*s + w_A*A + w_R*R + w_T*T.
type RerankWeights struct {
	Score     float64
	Authority float64
	Recency   float64
	TypePref  float64
}

// DefaultRerankWeights matches spec.md §4.5's stated defaults.
func DefaultRerankWeights() RerankWeights {
	return RerankWeights{Score: 0.6, Authority: 0.15, Recency: 0.1, TypePref: 0.15}
}

// MinPerType is the per-type floor for balanced retrieval (spec.md §4.5(c)).
type MinPerType map[document.Type]int

// DefaultMinPerType matches spec.md §4.5(c)'s stated defaults.
func DefaultMinPerType() MinPerType {
	return MinPerType{
		document.TypeTextbook:   2,
		document.TypeQAPair:     1,
		document.TypeRegulation: 1,
	}
}

// BalancedReport records per-type shortfalls: balanced retrieval never
// fails on a shortfall, only reports it (spec.md §4.5(c)).
type BalancedReport struct {
	Shortfalls map[document.Type]int
}
