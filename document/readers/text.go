package readers

import (
	"context"
	"errors"
	"io"

	"financebuddy/core/document"
)

var _ document.Reader = (*TextReader)(nil)

// TextReader reads a whole .txt/.md file as a single raw document. The
// pipeline is responsible for assigning Title (filename stem) and Type
// (inferred from path/content) before the document is persisted.
type TextReader struct {
	reader     io.Reader
	bufferSize int
	title      string
	source     string
	typ        document.Type
}

func (t *TextReader) Read(_ context.Context) ([]*document.Document, error) {
	data, err := io.ReadAll(io.LimitReader(t.reader, int64(t.bufferSize)))
	if err != nil {
		return nil, err
	}

	doc, err := document.NewDocument(t.title, string(data), t.typ, t.source)
	if err != nil {
		return nil, err
	}

	return []*document.Document{doc}, nil
}

// NewTextReader builds a reader for a single text/markdown source. title,
// source and typ are supplied by the caller, which already knows the
// filename and has run type inference.
func NewTextReader(reader io.Reader, title, source string, typ document.Type, sizes ...int) (*TextReader, error) {
	if reader == nil {
		return nil, errors.New("reader is nil")
	}
	const defaultBufferSize = 1 << 24 // 16MiB ceiling for a single source file

	bufferSize := defaultBufferSize
	if len(sizes) > 0 && sizes[0] > 0 {
		bufferSize = sizes[0]
	}

	return &TextReader{
		reader:     reader,
		bufferSize: bufferSize,
		title:      title,
		source:     source,
		typ:        typ,
	}, nil
}
