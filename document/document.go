// Package document defines the corpus's core data type and the interfaces
// (Reader, Writer, Transformer, Batcher) used to move documents through the
// ingestion pipeline.
package document

import (
	"errors"
	"time"
)

// Type classifies a document's provenance within the certification corpus.
// The set is closed: implementers needing a new category should map it onto
// one of these three rather than extending the enum loosely.
type Type string

const (
	TypeTextbook   Type = "textbook"
	TypeQAPair     Type = "qa_pair"
	TypeRegulation Type = "regulation"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTextbook, TypeQAPair, TypeRegulation:
		return true
	default:
		return false
	}
}

// Document is a single retrieval unit in the corpus: a whole source file or
// one chunk of one. ID is stable and content-addressed once assigned by the
// ingestion pipeline (see document/id), so re-ingesting the same source is
// idempotent.
type Document struct {
	ID      string
	Title   string
	Content string
	Type    Type
	Source  string

	Chapter string
	Section string

	Tags []string

	// Embedding is nil until the document has been processed by an
	// embedding.Provider. Once set, its length must equal the provider's
	// reported dimension for the lifetime of the document.
	Embedding []float64

	Metadata map[string]any

	LastUpdated time.Time

	// Score is a transient relevance score attached by retrieval. It is not
	// part of the document's persisted identity.
	Score float64

	Formatter Formatter
}

// NewDocument creates a new Document with the given title and content.
// Returns an error if content is empty or typ is not one of the closed enum
// values — a document with nothing to embed or retrieve on is not useful in
// this corpus.
func NewDocument(title, content string, typ Type, source string) (*Document, error) {
	if content == "" {
		return nil, errors.New("document requires content")
	}
	if !typ.Valid() {
		return nil, errors.New("document type must be textbook, qa_pair, or regulation")
	}

	return &Document{
		Title:     title,
		Content:   content,
		Type:      typ,
		Source:    source,
		Tags:      make([]string, 0),
		Metadata:  make(map[string]any),
		Formatter: NewNop(),
	}, nil
}

// Format returns the formatted document string including all metadata using
// the document's default formatter.
func (d *Document) Format() string {
	return d.FormatByMetadataMode(MetadataModeAll)
}

// FormatByMetadataMode formats the document with the specified metadata mode
// using the document's assigned formatter.
func (d *Document) FormatByMetadataMode(mode MetadataMode) string {
	return d.FormatByMetadataModeWithFormatter(mode, d.Formatter)
}

// FormatByMetadataModeWithFormatter formats the document using a custom
// formatter and metadata mode. Falls back to the no-op formatter if nil is
// provided.
func (d *Document) FormatByMetadataModeWithFormatter(mode MetadataMode, formatter Formatter) string {
	if formatter == nil {
		formatter = NewNop()
	}
	return formatter.Format(d, mode)
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
