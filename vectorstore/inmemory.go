package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"financebuddy/core/document"
	"financebuddy/core/embedding"
)

var _ VectorStore = (*InMemoryStore)(nil)

// InMemoryStore is an in-memory VectorStore. Suitable for development,
// testing, and property checks (spec.md §9 design notes: "in-memory vs
// persistent" variants). Guarded by an RWMutex over a plain map, copying on
// read, the same locking posture as the teacher's chat memory store.
type InMemoryStore struct {
	mu        sync.RWMutex
	name      string
	embedder  embedding.Provider
	documents map[string]*document.Document
}

func NewInMemoryStore(name string, embedder embedding.Provider) *InMemoryStore {
	return &InMemoryStore{
		name:      name,
		embedder:  embedder,
		documents: make(map[string]*document.Document),
	}
}

func (s *InMemoryStore) Initialize(_ context.Context) error {
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, docs []*document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return errors.New("vectorstore: document id is required for upsert")
		}
		if len(doc.Embedding) == 0 {
			return errors.New("vectorstore: document embedding is required for upsert")
		}
		s.documents[doc.ID] = doc
	}
	return nil
}

func (s *InMemoryStore) SearchSimilar(ctx context.Context, query string, opts SearchOptions) ([]Scored, error) {
	opts.Normalize()

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := make([]*document.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		candidates = append(candidates, doc)
	}
	s.mu.RUnlock()

	matched := make([]Scored, 0, len(candidates))
	for _, doc := range candidates {
		if !passesFilters(doc, opts) {
			continue
		}
		score := cosineSimilarity(queryVector, doc.Embedding)
		if score < opts.MinScore {
			continue
		}
		matched = append(matched, Scored{Document: doc, Score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func passesFilters(doc *document.Document, opts SearchOptions) bool {
	if len(opts.TypeFilter) > 0 {
		found := false
		for _, t := range opts.TypeFilter {
			if doc.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, tag := range opts.TagFilter {
		if !doc.HasTag(tag) {
			return false
		}
	}

	return opts.MetadataFilter.Matches(doc.Metadata)
}

func (s *InMemoryStore) GetByID(_ context.Context, id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, id)
	return nil
}

func (s *InMemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Count: len(s.documents), Name: s.name}, nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = make(map[string]*document.Document)
	return nil
}

// cosineSimilarity maps cosine similarity from [-1, 1] into [0, 1], matching
// the score range spec.md §4.2 requires of every VectorStore implementation.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
