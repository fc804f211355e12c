package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions_Valid(t *testing.T) {
	content := `[
		{"questionText": "What is duration?", "options": {"A":"a","B":"b","C":"c","D":"d"}, "correctAnswer":"A", "explanation":"because", "sourceReferences":["source-a"], "difficulty":"medium"}
	]`
	questions, err := parseQuestions(content)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What is duration?", questions[0].QuestionText)
	assert.Equal(t, "A", questions[0].CorrectAnswer)
}

func TestParseQuestions_StripsSurroundingProse(t *testing.T) {
	content := "Sure, here you go:\n[{\"questionText\":\"q\",\"options\":{\"A\":\"a\",\"B\":\"b\",\"C\":\"c\",\"D\":\"d\"},\"correctAnswer\":\"B\",\"explanation\":\"e\",\"sourceReferences\":[],\"difficulty\":\"easy\"}]\nHope that helps!"
	questions, err := parseQuestions(content)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "B", questions[0].CorrectAnswer)
}

func TestParseQuestions_RejectsMissingOption(t *testing.T) {
	content := `[{"questionText":"q","options":{"A":"a","B":"b","C":"c"},"correctAnswer":"A","explanation":"e","sourceReferences":[],"difficulty":"easy"}]`
	_, err := parseQuestions(content)
	assert.Error(t, err)
}

func TestParseQuestions_RejectsInvalidCorrectAnswer(t *testing.T) {
	content := `[{"questionText":"q","options":{"A":"a","B":"b","C":"c","D":"d"},"correctAnswer":"E","explanation":"e","sourceReferences":[],"difficulty":"easy"}]`
	_, err := parseQuestions(content)
	assert.Error(t, err)
}

func TestParseQuestions_RejectsEmptyExplanation(t *testing.T) {
	content := `[{"questionText":"q","options":{"A":"a","B":"b","C":"c","D":"d"},"correctAnswer":"A","explanation":"","sourceReferences":[],"difficulty":"easy"}]`
	_, err := parseQuestions(content)
	assert.Error(t, err)
}

func TestParseAnswer_Valid(t *testing.T) {
	result, err := parseAnswer(`{"correctAnswer":"C","rationale":"because"}`)
	require.NoError(t, err)
	assert.Equal(t, "C", result.CorrectAnswer)
}

func TestParseAnswer_RejectsInvalidKey(t *testing.T) {
	_, err := parseAnswer(`{"correctAnswer":"Z","rationale":"because"}`)
	assert.Error(t, err)
}

func TestParseExplanation_Valid(t *testing.T) {
	result, err := parseExplanation(`{"explanation":"because X","sourceReferences":["source-a"]}`)
	require.NoError(t, err)
	assert.Equal(t, "because X", result.Explanation)
	assert.Equal(t, []string{"source-a"}, result.SourceReferences)
}

func TestParseExplanation_RejectsEmpty(t *testing.T) {
	_, err := parseExplanation(`{"explanation":"","sourceReferences":[]}`)
	assert.Error(t, err)
}

func TestParseFollowup_Valid(t *testing.T) {
	answer, err := parseFollowup(`{"answer":"because X"}`)
	require.NoError(t, err)
	assert.Equal(t, "because X", answer)
}

func TestExtractJSON_Object(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`prose before {"a":1} prose after`))
}

func TestExtractJSON_Array(t *testing.T) {
	assert.Equal(t, `[1,2,3]`, extractJSON(`[1,2,3]`))
}

func TestExtractJSON_NoBrackets(t *testing.T) {
	assert.Equal(t, "just text", extractJSON("just text"))
}
