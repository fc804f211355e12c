// Package ingestion implements C3 (Document Processor) and C4 (Ingestion
// Pipeline): turning raw documents into chunked, tagged, embedded,
// persisted corpus entries.
package ingestion

import (
	"context"
	"errors"
	"fmt"

	"financebuddy/core/document"
	"financebuddy/core/document/id"
	"financebuddy/core/embedding"
	"financebuddy/core/vectorstore"
)

// Severity classifies a per-document ingestion failure (spec.md §4.3).
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DocError reports one document's ingestion failure without stopping the
// run for the rest of the batch.
type DocError struct {
	Source   string
	Severity Severity
	Err      error
}

// Report summarizes one Process call.
type Report struct {
	TotalInputDocs int
	ProducedChunks int
	Successes      int
	Errors         []DocError

	// Persisted holds the chunks actually upserted into the vector store,
	// so a caller can feed them to a separate index (e.g. C5's lexical
	// index) without a second read of the store.
	Persisted []*document.Document
}

func (r *Report) addError(source string, severity Severity, err error) {
	r.Errors = append(r.Errors, DocError{Source: source, Severity: severity, Err: err})
}

type ProcessorConfig struct {
	Embedder  embedding.Provider
	Store     vectorstore.VectorStore
	IDs       id.Generator
	ChunkSize int
	Overlap   int

	// EmbedBatchSize caps how many chunks go into a single EmbedBatch call
	// (spec.md §6's EMBEDDING_BATCH_SIZE). Defaults to DefaultEmbedBatchSize.
	EmbedBatchSize int
}

func (c *ProcessorConfig) validate() error {
	if c == nil {
		return errors.New("ingestion: processor config is required")
	}
	if c.Embedder == nil {
		return errors.New("ingestion: embedder is required")
	}
	if c.Store == nil {
		return errors.New("ingestion: store is required")
	}
	if c.IDs == nil {
		return errors.New("ingestion: id generator is required")
	}
	return nil
}

// DefaultEmbedBatchSize matches spec.md §6's EMBEDDING_BATCH_SIZE default.
const DefaultEmbedBatchSize = 50

// DocumentProcessor implements C3: normalize, chunk, tag, embed, persist.
type DocumentProcessor struct {
	embedder  embedding.Provider
	store     vectorstore.VectorStore
	ids       id.Generator
	size      int
	overlap   int
	batchSize int
}

func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := cfg.Overlap
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	batchSize := cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}

	return &DocumentProcessor{
		embedder:  cfg.Embedder,
		store:     cfg.Store,
		ids:       cfg.IDs,
		size:      size,
		overlap:   overlap,
		batchSize: batchSize,
	}, nil
}

// Process runs the full C3 pipeline over raw input documents and upserts the
// resulting chunks into the vector store. A per-document failure is
// recorded in the report and does not stop processing of the rest.
func (p *DocumentProcessor) Process(ctx context.Context, docs []*document.Document) (Report, error) {
	report := Report{TotalInputDocs: len(docs)}

	var toEmbed []*document.Document
	for _, doc := range docs {
		chunks, err := p.chunkOne(ctx, doc)
		if err != nil {
			report.addError(doc.Source, SeverityError, err)
			continue
		}
		toEmbed = append(toEmbed, chunks...)
	}
	report.ProducedChunks = len(toEmbed)

	if len(toEmbed) == 0 {
		return report, nil
	}

	var persistable []*document.Document
	for start := 0; start < len(toEmbed); start += p.batchSize {
		end := start + p.batchSize
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		batch := toEmbed[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}

		results, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return report, fmt.Errorf("ingestion: embedding batch failed: %w", err)
		}

		for i, res := range results {
			doc := batch[i]
			if res.Err != nil {
				report.addError(doc.Source, SeverityWarning, res.Err)
				continue
			}
			doc.Embedding = res.Vector
			persistable = append(persistable, doc)
		}
	}

	if len(persistable) == 0 {
		return report, nil
	}

	if err := p.store.Upsert(ctx, persistable); err != nil {
		return report, fmt.Errorf("ingestion: upsert failed: %w", err)
	}

	report.Successes = len(persistable)
	report.Persisted = persistable
	return report, nil
}

// chunkOne runs (a)-(d) of spec.md §4.3 for a single input document:
// normalize, split, tag, and assign a content-addressed chunk id.
func (p *DocumentProcessor) chunkOne(ctx context.Context, doc *document.Document) ([]*document.Document, error) {
	normalized := normalizeWhitespace(doc.Content)
	if normalized == "" {
		return nil, errors.New("ingestion: document has no content after normalization")
	}

	pieces := chunk(normalized, p.size, p.overlap)

	chunks := make([]*document.Document, 0, len(pieces))
	for i, piece := range pieces {
		chunkID, err := p.ids.Generate(ctx, doc.Source, i)
		if err != nil {
			return nil, fmt.Errorf("ingestion: failed to generate chunk id: %w", err)
		}

		c := &document.Document{
			ID:          chunkID,
			Title:       doc.Title,
			Content:     piece,
			Type:        doc.Type,
			Source:      doc.Source,
			Chapter:     doc.Chapter,
			Section:     doc.Section,
			Tags:        deriveTags(piece, doc.Tags, doc.Type),
			Metadata:    cloneMetadata(doc.Metadata),
			LastUpdated: doc.LastUpdated,
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
