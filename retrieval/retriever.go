package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"financebuddy/core/document"
	"financebuddy/core/vectorstore"
)

// Mode selects the base retrieval strategy Enhanced reranks on top of.
type Mode string

const (
	ModeBasic  Mode = "basic"
	ModeHybrid Mode = "hybrid"
)

const (
	// DefaultHybridAlpha weights vector score over keyword score in Hybrid
	// (spec.md §4.5(b)).
	DefaultHybridAlpha = 0.7

	// candidateFanoutN is how many hits each side of a hybrid query
	// contributes before scores are combined.
	candidateFanoutN = 20
)

type Config struct {
	Store  vectorstore.VectorStore
	Lexical LexicalIndex
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("retrieval: config is required")
	}
	if c.Store == nil {
		return errors.New("retrieval: store is required")
	}
	return nil
}

// Retriever implements C5: the four retrieval modes plus the reranker and
// per-document helpers.
type Retriever struct {
	store   vectorstore.VectorStore
	lexical LexicalIndex
}

func NewRetriever(cfg *Config) (*Retriever, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lexical := cfg.Lexical
	if lexical == nil {
		lexical = NewInMemoryLexicalIndex()
	}

	return &Retriever{store: cfg.Store, lexical: lexical}, nil
}

// Basic embeds query via C1 (inside the store) and calls C2.searchSimilar.
func (r *Retriever) Basic(ctx context.Context, query string, opts vectorstore.SearchOptions) ([]Candidate, error) {
	scored, err := r.store.SearchSimilar(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieval: basic search failed: %w", err)
	}

	candidates := make([]Candidate, len(scored))
	for i, s := range scored {
		candidates[i] = Candidate{Document: s.Document, Score: s.Score}
	}
	return candidates, nil
}

// Hybrid combines vector score v and keyword score k per candidate:
// hybrid = alpha*v + (1-alpha)*k (spec.md §4.5(b)). Candidates are the
// union of the top-N vector hits and top-N keyword hits.
//
// If the vector store is unavailable, Hybrid degrades to keyword-only
// results instead of failing outright (spec.md §7's RetrievalDegraded
// contract and §8's "vector store down" boundary behavior) and reports
// degraded=true so the caller can surface a warning. A keyword search
// failure is still fatal: there is nothing left to fall back to.
func (r *Retriever) Hybrid(ctx context.Context, query string, opts vectorstore.SearchOptions, alpha float64) ([]Candidate, bool, error) {
	if alpha <= 0 {
		alpha = DefaultHybridAlpha
	}

	vectorOpts := opts
	vectorOpts.Limit = candidateFanoutN

	vectorHits, vectorErr := r.Basic(ctx, query, vectorOpts)
	degraded := vectorErr != nil

	keywordHits, err := r.lexical.Search(ctx, query, candidateFanoutN)
	if err != nil {
		return nil, degraded, fmt.Errorf("retrieval: keyword search failed: %w", err)
	}

	if degraded {
		limit := opts.Limit
		if limit <= 0 {
			limit = 10
		}
		sort.SliceStable(keywordHits, func(i, j int) bool {
			return keywordHits[i].Score > keywordHits[j].Score
		})
		if len(keywordHits) > limit {
			keywordHits = keywordHits[:limit]
		}
		return keywordHits, true, nil
	}

	vectorScore := make(map[string]float64, len(vectorHits))
	byID := make(map[string]*document.Document, len(vectorHits)+len(keywordHits))
	for _, c := range vectorHits {
		vectorScore[c.Document.ID] = c.Score
		byID[c.Document.ID] = c.Document
	}

	keywordScore := make(map[string]float64, len(keywordHits))
	for _, c := range keywordHits {
		keywordScore[c.Document.ID] = c.Score
		if _, ok := byID[c.Document.ID]; !ok {
			byID[c.Document.ID] = c.Document
		}
	}

	candidates := make([]Candidate, 0, len(byID))
	for id, doc := range byID {
		combined := alpha*vectorScore[id] + (1-alpha)*keywordScore[id]
		candidates = append(candidates, Candidate{Document: doc, Score: combined})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, false, nil
}

// Balanced requests at least minPerType results per declared type,
// issuing parallel per-type retrievals and merging (spec.md §4.5(c)).
// Shortfalls are reported, not failed.
func (r *Retriever) Balanced(ctx context.Context, query string, minPerType MinPerType, opts vectorstore.SearchOptions) ([]Candidate, BalancedReport, error) {
	if minPerType == nil {
		minPerType = DefaultMinPerType()
	}

	types := make([]document.Type, 0, len(minPerType))
	for t := range minPerType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var mu sync.Mutex
	results := make(map[document.Type][]Candidate, len(types))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(types))

	for _, t := range types {
		t := t
		g.Go(func() error {
			perTypeOpts := opts
			perTypeOpts.TypeFilter = []document.Type{t}
			perTypeOpts.Limit = minPerType[t]

			candidates, err := r.Basic(gctx, query, perTypeOpts)
			if err != nil {
				return fmt.Errorf("retrieval: balanced retrieval for type %s failed: %w", t, err)
			}

			mu.Lock()
			results[t] = candidates
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, BalancedReport{}, err
	}

	report := BalancedReport{Shortfalls: map[document.Type]int{}}
	var merged []Candidate
	for _, t := range types {
		got := results[t]
		merged = append(merged, got...)
		if short := minPerType[t] - len(got); short > 0 {
			report.Shortfalls[t] = short
		}
	}

	return merged, report, nil
}

// Enhanced runs Basic or Hybrid and then reranks the result (spec.md
// §4.5(d)). degraded mirrors Hybrid's fallback signal; Basic mode never
// degrades (a Basic failure is fatal, not a fallback case).
func (r *Retriever) Enhanced(ctx context.Context, query string, mode Mode, opts vectorstore.SearchOptions, alpha float64, rerankOpts RerankOptions) (candidates []Candidate, degraded bool, err error) {
	switch mode {
	case ModeHybrid:
		candidates, degraded, err = r.Hybrid(ctx, query, opts, alpha)
	default:
		candidates, err = r.Basic(ctx, query, opts)
	}
	if err != nil {
		return nil, degraded, err
	}

	rerankOpts.Limit = opts.Limit
	return Rerank(candidates, rerankOpts), degraded, nil
}

// FindSimilar uses doc's own content as the query, excluding itself from
// the result (spec.md §4.5's findSimilar helper).
func (r *Retriever) FindSimilar(ctx context.Context, docID string, k int) ([]Candidate, error) {
	doc, err := r.store.GetByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("retrieval: find similar lookup failed: %w", err)
	}

	candidates, err := r.Basic(ctx, doc.Content, vectorstore.SearchOptions{Limit: k + 1})
	if err != nil {
		return nil, err
	}

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Document.ID == docID {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

// RetrieveByType is a thin helper over Basic with a single-type filter.
func (r *Retriever) RetrieveByType(ctx context.Context, typ document.Type, k int) ([]Candidate, error) {
	return r.Basic(ctx, "", vectorstore.SearchOptions{Limit: k, TypeFilter: []document.Type{typ}})
}

// RetrieveByTags is a thin helper over Basic with a conjunctive tag filter
// (spec.md §4.5's retrieveByTags: "conjunctive").
func (r *Retriever) RetrieveByTags(ctx context.Context, tags []string, k int) ([]Candidate, error) {
	return r.Basic(ctx, "", vectorstore.SearchOptions{Limit: k, TagFilter: tags})
}

// IndexForLexical feeds documents into the retriever's keyword index.
// cmd/server calls this with the chunks an ingestion run persisted so hybrid
// retrieval has something to search (spec.md §4.5(b): "a lexical index
// maintained alongside the store").
func (r *Retriever) IndexForLexical(docs []*document.Document) {
	r.lexical.Index(docs)
}
