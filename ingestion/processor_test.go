package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebuddy/core/document"
	"financebuddy/core/document/id"
	"financebuddy/core/embedding"
	"financebuddy/core/vectorstore"
)

func newTestProcessor(t *testing.T) (*DocumentProcessor, *vectorstore.InMemoryStore) {
	t.Helper()
	embedder := embedding.NewStubProvider(8)
	store := vectorstore.NewInMemoryStore("test", embedder)

	proc, err := NewDocumentProcessor(&ProcessorConfig{
		Embedder: embedder,
		Store:    store,
		IDs:      id.NewSha256Generator(nil),
	})
	require.NoError(t, err)
	return proc, store
}

func TestDocumentProcessor_Process_SingleDocument(t *testing.T) {
	proc, store := newTestProcessor(t)
	ctx := context.Background()

	doc, err := document.NewDocument("Bond Basics", "Bond duration measures interest rate sensitivity.", document.TypeTextbook, "textbook-1.txt")
	require.NoError(t, err)

	report, err := proc.Process(ctx, []*document.Document{doc})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalInputDocs)
	assert.Equal(t, 1, report.ProducedChunks)
	assert.Equal(t, 1, report.Successes)
	assert.Empty(t, report.Errors)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
}

func TestDocumentProcessor_Process_ChunksLongContent(t *testing.T) {
	proc, store := newTestProcessor(t)
	ctx := context.Background()

	long := strings.Repeat("Duration measures bond price sensitivity to interest rate changes. ", 40)
	doc, err := document.NewDocument("Duration", long, document.TypeTextbook, "textbook-2.txt")
	require.NoError(t, err)

	report, err := proc.Process(ctx, []*document.Document{doc})
	require.NoError(t, err)

	assert.Greater(t, report.ProducedChunks, 1)
	assert.Equal(t, report.ProducedChunks, report.Successes)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ProducedChunks, stats.Count)
}

func TestDocumentProcessor_Process_IdempotentChunkIDs(t *testing.T) {
	proc, _ := newTestProcessor(t)
	ctx := context.Background()

	doc, err := document.NewDocument("Title", "stable content for hashing", document.TypeTextbook, "source.txt")
	require.NoError(t, err)

	chunksA, err := proc.chunkOne(ctx, doc)
	require.NoError(t, err)
	chunksB, err := proc.chunkOne(ctx, doc)
	require.NoError(t, err)

	require.Len(t, chunksA, 1)
	require.Len(t, chunksB, 1)
	assert.Equal(t, chunksA[0].ID, chunksB[0].ID)
}

func TestDocumentProcessor_Process_EmptyContentIsReportedError(t *testing.T) {
	proc, _ := newTestProcessor(t)
	ctx := context.Background()

	doc := &document.Document{Source: "empty.txt", Content: "   ", Type: document.TypeTextbook}

	report, err := proc.Process(ctx, []*document.Document{doc})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalInputDocs)
	assert.Equal(t, 0, report.ProducedChunks)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, SeverityError, report.Errors[0].Severity)
}
