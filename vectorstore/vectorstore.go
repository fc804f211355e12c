// Package vectorstore implements C2: storing documents with embeddings and
// serving k-NN search with conjunctive metadata filtering.
package vectorstore

import (
	"context"
	"errors"

	"financebuddy/core/document"
	"financebuddy/core/vectorstore/filter"
)

// SearchOptions mirrors spec.md §4.2's searchSimilar opts = { limit,
// minScore, typeFilter, tagFilter, metadataFilter }.
type SearchOptions struct {
	Limit          int
	MinScore       float64
	TypeFilter     []document.Type
	TagFilter      []string
	MetadataFilter *filter.Filter
}

// Normalize fills in defaults. Exported so out-of-package backends (e.g.
// vectorstore/qdrant) can apply the same defaulting the in-memory store uses.
func (o *SearchOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = 10
	}
}

// Scored pairs a document with its similarity score, descending by score
// within a result set.
type Scored struct {
	Document *document.Document
	Score    float64
}

// Stats reports collection-level counters.
type Stats struct {
	Count int
	Name  string
}

// VectorStore is C2's contract. initialize is idempotent; upsert is atomic
// per document; searchSimilar filters are conjunctive across Type/Tag/Metadata.
type VectorStore interface {
	// Initialize idempotently creates the named collection.
	Initialize(ctx context.Context) error

	// Upsert stores documents without embedding them. Each document must
	// already carry an Embedding; a missing embedding is an error.
	Upsert(ctx context.Context, docs []*document.Document) error

	SearchSimilar(ctx context.Context, query string, opts SearchOptions) ([]Scored, error)

	GetByID(ctx context.Context, id string) (*document.Document, error)

	Delete(ctx context.Context, id string) error

	Stats(ctx context.Context) (Stats, error)

	Clear(ctx context.Context) error
}

var ErrNotFound = errors.New("vectorstore: document not found")
