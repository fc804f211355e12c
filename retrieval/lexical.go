package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"financebuddy/core/document"
)

// stopwords is a small, fixed list removed before scoring — not an
// exhaustive stoplist, just enough to keep keyword scores meaningful for
// certification-study prose (spec.md §4.5(b): "stopwords removed").
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "is": true, "are": true, "for": true, "on": true,
	"with": true, "by": true, "at": true, "as": true, "be": true, "this": true,
	"that": true, "it": true, "from": true,
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	words := wordPattern.FindAllString(lower, -1)

	out := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// LexicalIndex maintains a keyword index alongside the vector store for
// hybrid retrieval's keyword score (spec.md §4.5(b)).
type LexicalIndex interface {
	Index(docs []*document.Document)
	Search(ctx context.Context, query string, topN int) ([]Candidate, error)
	Score(query string, doc *document.Document) float64
}

var _ LexicalIndex = (*InMemoryLexicalIndex)(nil)

// InMemoryLexicalIndex scores documents with a normalized query-term count
// over title+content: a BM25-style approximation, capped at 1.0, with
// stopwords removed (stemming is optional per the spec and not applied
// here).
type InMemoryLexicalIndex struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

func NewInMemoryLexicalIndex() *InMemoryLexicalIndex {
	return &InMemoryLexicalIndex{docs: make(map[string]*document.Document)}
}

func (idx *InMemoryLexicalIndex) Index(docs []*document.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, doc := range docs {
		idx.docs[doc.ID] = doc
	}
}

func (idx *InMemoryLexicalIndex) Score(query string, doc *document.Document) float64 {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return 0
	}

	haystack := tokenize(doc.Title + " " + doc.Content)
	counts := make(map[string]int, len(haystack))
	for _, w := range haystack {
		counts[w]++
	}

	var matched int
	for _, term := range queryTerms {
		matched += counts[term]
	}

	score := float64(matched) / float64(len(queryTerms))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (idx *InMemoryLexicalIndex) Search(_ context.Context, query string, topN int) ([]Candidate, error) {
	idx.mu.RLock()
	docs := make([]*document.Document, 0, len(idx.docs))
	for _, doc := range idx.docs {
		docs = append(docs, doc)
	}
	idx.mu.RUnlock()

	candidates := make([]Candidate, 0, len(docs))
	for _, doc := range docs {
		score := idx.Score(query, doc)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{Document: doc, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}
