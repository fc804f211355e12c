package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebuddy/core/document/id"
	"financebuddy/core/embedding"
	"financebuddy/core/vectorstore"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPipeline_Run_WalksAndProcesses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chapter1.txt", "An overview of fixed income securities and bond duration.")
	writeFile(t, dir, "faq.json", `[{"title":"FAQ 1","content":"question: what is duration? answer: a sensitivity measure"}]`)
	writeFile(t, dir, "notes.csv", "ignored,extension")

	embedder := embedding.NewStubProvider(8)
	store := vectorstore.NewInMemoryStore("test", embedder)
	proc, err := NewDocumentProcessor(&ProcessorConfig{
		Embedder: embedder,
		Store:    store,
		IDs:      id.NewSha256Generator(nil),
	})
	require.NoError(t, err)

	pipeline, err := NewPipeline(PipelineConfig{Processor: proc})
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalInputDocs)
	assert.Equal(t, 2, report.Successes)
	assert.Empty(t, report.Errors)
}

func TestPipeline_Run_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chapter1.txt", "An overview of fixed income securities and bond duration.")

	embedder := embedding.NewStubProvider(8)
	store := vectorstore.NewInMemoryStore("test", embedder)
	proc, err := NewDocumentProcessor(&ProcessorConfig{
		Embedder: embedder,
		Store:    store,
		IDs:      id.NewSha256Generator(nil),
	})
	require.NoError(t, err)

	registry := NewInMemoryRegistry()
	pipeline, err := NewPipeline(PipelineConfig{Processor: proc, Registry: registry, SkipExisting: true})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := pipeline.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Successes)

	second, err := pipeline.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalInputDocs)
	assert.Equal(t, 0, second.Successes)
}
