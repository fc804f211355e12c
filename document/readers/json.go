package readers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"unicode"

	"financebuddy/core/document"
)

var _ document.Reader = (*JSONReader)(nil)

// jsonDocEntry mirrors the ingestion JSON document shape:
// {title, content, source?, type?, metadata?}.
type jsonDocEntry struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// TypeInferrer fills in a document's Type when a JSON entry omits it.
type TypeInferrer func(source, title, content string) document.Type

// JSONReader parses a JSON document or array of documents following the
// ingestion pipeline's shape. Entries that omit "source" inherit the
// reader's default source (typically the file path); entries that omit
// "type" are classified by Infer.
type JSONReader struct {
	reader        io.Reader
	bufferSize    int
	defaultSource string
	infer         TypeInferrer
}

func (j *JSONReader) toDocument(entry jsonDocEntry) (*document.Document, error) {
	if entry.Title == "" {
		return nil, errors.New("json document entry requires title")
	}

	source := entry.Source
	if source == "" {
		source = j.defaultSource
	}

	typ := document.Type(entry.Type)
	if entry.Type == "" {
		typ = j.infer(source, entry.Title, entry.Content)
	}

	doc, err := document.NewDocument(entry.Title, entry.Content, typ, source)
	if err != nil {
		return nil, err
	}

	for k, v := range entry.Metadata {
		doc.Metadata[k] = v
	}

	return doc, nil
}

func (j *JSONReader) maybeJSONArray(data []byte) bool {
	trimmed := bytes.TrimFunc(data, unicode.IsSpace)
	if len(trimmed) < 2 {
		return false
	}
	return trimmed[0] == '['
}

func (j *JSONReader) Read(_ context.Context) ([]*document.Document, error) {
	data, err := io.ReadAll(io.LimitReader(j.reader, int64(j.bufferSize)))
	if err != nil {
		return nil, err
	}

	if j.maybeJSONArray(data) {
		var entries []jsonDocEntry
		if err = json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}

		docs := make([]*document.Document, 0, len(entries))
		for _, entry := range entries {
			doc, derr := j.toDocument(entry)
			if derr != nil {
				return nil, derr
			}
			docs = append(docs, doc)
		}
		return docs, nil
	}

	var entry jsonDocEntry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	doc, err := j.toDocument(entry)
	if err != nil {
		return nil, err
	}

	return []*document.Document{doc}, nil
}

// NewJSONReader builds a reader over a single JSON source (object or array).
// defaultSource is used for entries that omit "source" (typically the file
// path being read); infer classifies entries that omit "type".
func NewJSONReader(reader io.Reader, defaultSource string, infer TypeInferrer, sizes ...int) (*JSONReader, error) {
	if reader == nil {
		return nil, errors.New("reader is nil")
	}
	if infer == nil {
		return nil, errors.New("type inferrer is required")
	}
	const defaultBufferSize = 1 << 24

	bufferSize := defaultBufferSize
	if len(sizes) > 0 && sizes[0] > 0 {
		bufferSize = sizes[0]
	}

	return &JSONReader{
		reader:        reader,
		bufferSize:    bufferSize,
		defaultSource: defaultSource,
		infer:         infer,
	}, nil
}
