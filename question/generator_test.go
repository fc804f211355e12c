package question

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financebuddy/core/document"
	"financebuddy/core/embedding"
	"financebuddy/core/llm"
	"financebuddy/core/prompt"
	"financebuddy/core/retrieval"
	"financebuddy/core/vectorstore"
)

// fakeAdapter returns a fixed batch of questions (or a given per-round
// sequence) without calling any real model.
type fakeAdapter struct {
	batches [][]llm.Question
	calls   int
}

func (f *fakeAdapter) GenerateQuestions(_ context.Context, _ prompt.QuestionParams) ([]llm.Question, error) {
	if f.calls >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch, nil
}

func (f *fakeAdapter) GenerateAnswer(context.Context, prompt.AnswerParams) (llm.AnswerResult, error) {
	return llm.AnswerResult{}, nil
}
func (f *fakeAdapter) GenerateExplanation(context.Context, prompt.ExplanationParams) (llm.ExplanationResult, error) {
	return llm.ExplanationResult{}, nil
}
func (f *fakeAdapter) GenerateFollowupResponse(context.Context, prompt.FollowupParams) (string, error) {
	return "", nil
}

func setupGeneratorRetriever(t *testing.T) *retrieval.Retriever {
	t.Helper()
	ctx := context.Background()
	embedder := embedding.NewStubProvider(8)
	store := vectorstore.NewInMemoryStore("test", embedder)

	docs := []*document.Document{
		mustDoc(t, "tb-1", "Bond Basics", "bond duration measures interest rate sensitivity", document.TypeTextbook),
		mustDoc(t, "qa-1", "FAQ", "question: what is duration? answer: a sensitivity measure", document.TypeQAPair),
		mustDoc(t, "reg-1", "Rule 10b-5", "this section shall apply to broker-dealers", document.TypeRegulation),
	}
	for _, d := range docs {
		vec, err := embedder.Embed(ctx, d.Content)
		require.NoError(t, err)
		d.Embedding = vec
	}
	require.NoError(t, store.Upsert(ctx, docs))

	retriever, err := retrieval.NewRetriever(&retrieval.Config{Store: store})
	require.NoError(t, err)
	return retriever
}

func mustDoc(t *testing.T, id, title, content string, typ document.Type) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(title, content, typ, "source-"+id)
	require.NoError(t, err)
	doc.ID = id
	return doc
}

func validQuestion(text string) llm.Question {
	return llm.Question{
		QuestionText:     text,
		Options:          map[string]string{"A": "bond duration", "B": "5", "C": "10", "D": "15"},
		CorrectAnswer:    "A",
		Explanation:      "duration measures interest rate sensitivity",
		SourceReferences: []string{"source-tb-1"},
		Difficulty:       "medium",
	}
}

func TestGenerate_InsufficientContextFails(t *testing.T) {
	retriever, err := retrieval.NewRetriever(&retrieval.Config{Store: vectorstore.NewInMemoryStore("empty", embedding.NewStubProvider(8))})
	require.NoError(t, err)

	gen, err := NewGenerator(&Config{Retriever: retriever, Adapter: &fakeAdapter{}})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "bond duration", 2, "medium")
	assert.Error(t, err)
}

func TestGenerate_AllowFallbackWithoutContext(t *testing.T) {
	retriever, err := retrieval.NewRetriever(&retrieval.Config{Store: vectorstore.NewInMemoryStore("empty", embedding.NewStubProvider(8))})
	require.NoError(t, err)

	adapter := &fakeAdapter{batches: [][]llm.Question{{}}}
	gen, err := NewGenerator(&Config{Retriever: retriever, Adapter: adapter, AllowFallbackWithoutContext: true})
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), "bond duration", 1, "medium")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.ContextSize)
}

func TestGenerate_AcceptsValidQuestions(t *testing.T) {
	retriever := setupGeneratorRetriever(t)
	adapter := &fakeAdapter{batches: [][]llm.Question{
		{validQuestion("What does duration measure?")},
	}}

	gen, err := NewGenerator(&Config{Retriever: retriever, Adapter: adapter})
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), "bond duration", 1, "medium")
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.NotEmpty(t, result.Questions[0].ID)
	assert.Equal(t, 0, result.Stats.DroppedCount)
}

func TestGenerate_DropsInvalidAndTopsUp(t *testing.T) {
	retriever := setupGeneratorRetriever(t)

	invalid := llm.Question{
		QuestionText:     "Bad question",
		Options:          map[string]string{"A": "x", "B": "x", "C": "y", "D": "z"}, // duplicate options
		CorrectAnswer:    "A",
		Explanation:      "because",
		SourceReferences: []string{"source-tb-1"},
		Difficulty:       "medium",
	}
	valid := validQuestion("What does duration measure?")

	adapter := &fakeAdapter{batches: [][]llm.Question{
		{invalid},
		{valid},
	}}

	gen, err := NewGenerator(&Config{Retriever: retriever, Adapter: adapter})
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), "bond duration", 1, "medium")
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, 1, result.Stats.DroppedCount)
	assert.Equal(t, 1, result.Stats.TopUpRounds)
}

func TestGenerate_RejectsUngroundedSourceReference(t *testing.T) {
	retriever := setupGeneratorRetriever(t)

	q := validQuestion("What does duration measure?")
	q.SourceReferences = []string{"nonexistent-source"}

	adapter := &fakeAdapter{batches: [][]llm.Question{{q}, {}}}
	gen, err := NewGenerator(&Config{Retriever: retriever, Adapter: adapter})
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), "bond duration", 1, "medium")
	require.NoError(t, err)
	assert.Empty(t, result.Questions)
	assert.Equal(t, 1, result.Stats.DroppedCount)
}
