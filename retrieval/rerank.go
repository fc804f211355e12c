package retrieval

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"financebuddy/core/document"
)

// authorityTable gives a baseline credibility score per declared source
// authority. Sources not listed fall back to neutral (0.5); metadata
// signals (authority, verified) can boost further in authorityScore.
var authorityTable = map[string]float64{
	"sec":   1.0,
	"finra": 0.95,
	"cfp":   0.85,
	"cfa":   0.85,
}

const defaultRecencyHalfLifeDays = 365

// RerankOptions configures one Rerank call.
type RerankOptions struct {
	Weights        RerankWeights
	TypeWeights    map[document.Type]float64
	RecencyHalfLife time.Duration
	Limit          int
	Now            time.Time
}

func (o *RerankOptions) normalize() {
	if o.Weights == (RerankWeights{}) {
		o.Weights = DefaultRerankWeights()
	}
	if o.RecencyHalfLife <= 0 {
		o.RecencyHalfLife = defaultRecencyHalfLifeDays * 24 * time.Hour
	}
	if o.Limit <= 0 {
		o.Limit = 10
	}
}

// Rerank applies spec.md §4.5's reranker: authority, recency, diversity
// (applied greedily at pick time), and type preference, combined into a
// final score and truncated to opts.Limit. Ties are broken by the
// candidates' incoming stable order (sort.SliceStable preserves it).
func Rerank(candidates []Candidate, opts RerankOptions) []Candidate {
	opts.normalize()

	if len(candidates) == 0 {
		return nil
	}

	base := make([]rankedCandidate, len(candidates))
	allZero := true
	for i, c := range candidates {
		authority := authorityScore(c.Document)
		recency := recencyScore(c.Document, opts.Now, opts.RecencyHalfLife)
		typePref := typePreferenceScore(c.Document, opts.TypeWeights)

		final := opts.Weights.Score*c.Score +
			opts.Weights.Authority*authority +
			opts.Weights.Recency*recency +
			opts.Weights.TypePref*typePref

		if c.Score != 0 {
			allZero = false
		}

		base[i] = rankedCandidate{Candidate: c, final: final}
	}

	if allZero {
		sort.SliceStable(base, func(i, j int) bool {
			ri := recencyScore(base[i].Document, opts.Now, opts.RecencyHalfLife)
			rj := recencyScore(base[j].Document, opts.Now, opts.RecencyHalfLife)
			if ri != rj {
				return ri > rj
			}
			return base[i].Document.Source < base[j].Document.Source
		})
	} else {
		sort.SliceStable(base, func(i, j int) bool {
			return base[i].final > base[j].final
		})
	}

	return pickDiverse(base, opts.Limit)
}

type rankedCandidate struct {
	Candidate
	final float64
}

// pickDiverse greedily selects from the rank-ordered candidates, penalizing
// remaining candidates that share a source (-0.2) or whose tag sets overlap
// by Jaccard >= 0.5 (-0.1) with an already-picked candidate, per spec.md
// §4.5's diversity signal.
func pickDiverse(ranked []rankedCandidate, limit int) []Candidate {
	remaining := make([]rankedCandidate, len(ranked))
	copy(remaining, ranked)

	var picked []Candidate
	var pickedSources []string
	var pickedTags [][]string

	for len(picked) < limit && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			score := c.final
			for _, s := range pickedSources {
				if c.Document.Source == s {
					score -= 0.2
					break
				}
			}
			for _, tags := range pickedTags {
				if jaccard(c.Document.Tags, tags) >= 0.5 {
					score -= 0.1
					break
				}
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		chosen := remaining[bestIdx]
		picked = append(picked, chosen.Candidate)
		pickedSources = append(pickedSources, chosen.Document.Source)
		pickedTags = append(pickedTags, chosen.Document.Tags)

		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return picked
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := lo.SliceToMap(a, func(s string) (string, struct{}) { return s, struct{}{} })
	var intersection, union int
	seen := make(map[string]bool, len(a)+len(b))

	for _, s := range a {
		seen[s] = true
	}
	union = len(setA)
	for _, s := range b {
		if !seen[s] {
			union++
			seen[s] = true
		}
	}
	for _, s := range b {
		if _, ok := setA[s]; ok {
			intersection++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// authorityScore reads a source credibility table plus metadata boosts
// (authority: 'SEC', verified: true) per spec.md §4.5.
func authorityScore(doc *document.Document) float64 {
	score := 0.5

	if meta, ok := doc.Metadata["authority"].(string); ok {
		if v, found := authorityTable[lowerTrim(meta)]; found {
			score = v
		}
	}
	if verified, ok := doc.Metadata["verified"].(bool); ok && verified {
		score = math.Min(1.0, score+0.1)
	}

	return score
}

func lowerTrim(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// recencyScore decays from 1.0 with the given half-life. A document missing
// LastUpdated is treated as neutral (0.3), per spec.md §4.5's edge case.
func recencyScore(doc *document.Document, now time.Time, halfLife time.Duration) float64 {
	if doc.LastUpdated.IsZero() {
		return 0.3
	}
	if now.IsZero() {
		now = time.Now()
	}

	age := now.Sub(doc.LastUpdated)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(halfLife))
}

// typePreferenceScore reads the caller-provided weights map; an unweighted
// type scores neutral (0.5).
func typePreferenceScore(doc *document.Document, weights map[document.Type]float64) float64 {
	if weights == nil {
		return 0.5
	}
	if w, ok := weights[doc.Type]; ok {
		return w
	}
	return 0.5
}
