package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"financebuddy/core/document"
	"financebuddy/core/document/readers"
)

// PipelineConfig wires C4 to a C3 processor and a skip-existing registry.
type PipelineConfig struct {
	Processor *DocumentProcessor
	Registry  Registry

	// SkipExisting consults Registry by (source, content-hash) and skips
	// files already processed (spec.md §4.4).
	SkipExisting bool

	// ValidateBeforeProcessing, when true, reads and validates every file
	// in the walk before any of them is processed: if any file in the
	// batch is invalid, the whole run is aborted instead of short-circuiting
	// just that file (spec.md §4.4).
	ValidateBeforeProcessing bool
}

// Pipeline implements C4: walk a directory, parse .txt/.md/.json, and feed
// the resulting raw documents to a DocumentProcessor.
type Pipeline struct {
	processor    *DocumentProcessor
	registry     Registry
	skipExisting bool
	validateAll  bool
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Processor == nil {
		return nil, fmt.Errorf("ingestion: pipeline requires a processor")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewInMemoryRegistry()
	}

	return &Pipeline{
		processor:    cfg.Processor,
		registry:     registry,
		skipExisting: cfg.SkipExisting,
		validateAll:  cfg.ValidateBeforeProcessing,
	}, nil
}

// walkResult pairs a parsed file's documents with its path, so a later
// validation pass can attribute errors back to the source file.
type walkResult struct {
	path string
	docs []*document.Document
	err  error
}

// Run walks root recursively, parses every .txt/.md/.json file found, and
// processes the resulting documents through C3. A parse failure on one file
// is recorded and does not stop the walk, unless ValidateBeforeProcessing is
// set and any file in the batch fails — in that case the whole run aborts
// before any processing happens.
func (p *Pipeline) Run(ctx context.Context, root string) (Report, error) {
	var results []walkResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" && ext != ".json" {
			return nil
		}

		docs, parseErr := p.parseFile(path, ext)
		results = append(results, walkResult{path: path, docs: docs, err: parseErr})
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("ingestion: walk failed: %w", err)
	}

	if p.validateAll {
		for _, r := range results {
			if r.err != nil {
				return Report{}, fmt.Errorf("ingestion: validation failed for %s: %w", r.path, r.err)
			}
		}
	}

	report := Report{}
	var toProcess []*document.Document

	for _, r := range results {
		if r.err != nil {
			report.TotalInputDocs++
			report.addError(r.path, SeverityError, r.err)
			continue
		}

		for _, doc := range r.docs {
			hash := ContentHash(doc.Content)
			if p.skipExisting && p.registry.Seen(doc.Source, hash) {
				continue
			}
			toProcess = append(toProcess, doc)
			p.registry.Mark(doc.Source, hash)
		}
	}

	report.TotalInputDocs += len(toProcess)

	if len(toProcess) == 0 {
		return report, nil
	}

	sub, err := p.processor.Process(ctx, toProcess)
	if err != nil {
		return report, err
	}

	report.ProducedChunks += sub.ProducedChunks
	report.Successes += sub.Successes
	report.Errors = append(report.Errors, sub.Errors...)
	report.Persisted = append(report.Persisted, sub.Persisted...)
	return report, nil
}

func (p *Pipeline) parseFile(path, ext string) ([]*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".txt", ".md":
		title := strings.TrimSuffix(filepath.Base(path), ext)
		content, err := readAll(f)
		if err != nil {
			return nil, err
		}
		typ := InferType(path, title, content)

		reader, err := readers.NewTextReader(strings.NewReader(content), title, path, typ)
		if err != nil {
			return nil, err
		}
		return reader.Read(context.Background())

	case ".json":
		reader, err := readers.NewJSONReader(f, path, InferType)
		if err != nil {
			return nil, err
		}
		return reader.Read(context.Background())

	default:
		return nil, fmt.Errorf("ingestion: unsupported extension %q", ext)
	}
}

func readAll(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	buf := make([]byte, info.Size())
	_, err = f.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
