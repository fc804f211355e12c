package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebuddy/core/document"
)

func newTestRetrievalDoc(t *testing.T, id, title, content string, typ document.Type) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(title, content, typ, "source-"+id)
	require.NoError(t, err)
	doc.ID = id
	return doc
}

func TestInMemoryLexicalIndex_Score(t *testing.T) {
	idx := NewInMemoryLexicalIndex()
	doc := newTestRetrievalDoc(t, "1", "Bond Duration", "duration measures interest rate sensitivity", document.TypeTextbook)

	score := idx.Score("duration sensitivity", doc)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestInMemoryLexicalIndex_Search(t *testing.T) {
	idx := NewInMemoryLexicalIndex()
	doc1 := newTestRetrievalDoc(t, "1", "Bond Duration", "duration measures interest rate risk", document.TypeTextbook)
	doc2 := newTestRetrievalDoc(t, "2", "Equity Beta", "beta measures market risk", document.TypeTextbook)
	idx.Index([]*document.Document{doc1, doc2})

	results, err := idx.Search(context.Background(), "duration risk", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "1", results[0].Document.ID)
}

func TestInMemoryLexicalIndex_EmptyQuery(t *testing.T) {
	idx := NewInMemoryLexicalIndex()
	doc := newTestRetrievalDoc(t, "1", "Title", "content", document.TypeTextbook)
	assert.Equal(t, 0.0, idx.Score("", doc))
}
