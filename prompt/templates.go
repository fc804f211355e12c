package prompt

import (
	"fmt"
	"strings"

	"financebuddy/core/retrieval"
)

// Exchange is one prior question/answer turn fed into the follow-up
// template (spec.md §4.7's previousExchanges).
type Exchange struct {
	Question string
	Answer   string
}

const questionSystemPrompt = `You are a certification exam question writer for securities and finance study material. You answer only with a single JSON array and nothing else.`

const questionUserTemplate = `Topic: {{.Topic}}
Difficulty: {{.Difficulty}}
Number of questions required: {{.Count}}

Context:
{{.Context}}

Write {{.Count}} multiple-choice questions about the topic, grounded only in the context above. Each question must have exactly four distinct options.

Respond with a JSON array. Each element has exactly these fields:
{
  "questionText": string,
  "options": {"A": string, "B": string, "C": string, "D": string},
  "correctAnswer": "A" | "B" | "C" | "D",
  "explanation": string,
  "sourceReferences": [string, ...],
  "difficulty": string
}

sourceReferences must name only sources that appear in the context block above. Do not include any text outside the JSON array.`

// QuestionParams feeds C7's generateQuestions operation (spec.md §4.7).
type QuestionParams struct {
	Topic      string
	Context    []retrieval.Candidate
	Count      int
	Difficulty string
}

// QuestionPrompt renders the question-generation template into a system and
// user message pair.
func QuestionPrompt(p QuestionParams) (system, user string, err error) {
	user, err = newRenderer(questionUserTemplate).
		with("Topic", p.Topic).
		with("Difficulty", p.Difficulty).
		with("Count", p.Count).
		with("Context", ContextBlock(p.Context)).
		render()
	return questionSystemPrompt, user, err
}

const answerSystemPrompt = `You are verifying a multiple-choice question's correct answer against supplied context. You answer only with a single JSON object and nothing else.`

const answerUserTemplate = `Question: {{.Question}}
Options:
{{range $key, $value := .Options}}{{$key}}: {{$value}}
{{end}}
Context:
{{.Context}}

Determine the correct option key and justify it from the context.

Respond with a JSON object with exactly these fields:
{
  "correctAnswer": "A" | "B" | "C" | "D",
  "rationale": string
}

Do not include any text outside the JSON object.`

// AnswerParams feeds C7's generateAnswers operation, used by the question
// generator for validation only (spec.md §4.7).
type AnswerParams struct {
	Question string
	Options  map[string]string
	Context  []retrieval.Candidate
}

func AnswerPrompt(p AnswerParams) (system, user string, err error) {
	user, err = newRenderer(answerUserTemplate).
		with("Question", p.Question).
		with("Options", p.Options).
		with("Context", ContextBlock(p.Context)).
		render()
	return answerSystemPrompt, user, err
}

const explanationSystemPrompt = `You are explaining why a certification exam answer is correct, using only the supplied context. You answer only with a single JSON object and nothing else.`

const explanationUserTemplate = `Question: {{.Question}}
Correct answer: {{.CorrectAnswer}}
Style: {{.Style}}
Audience: {{.Audience}}
Maximum length: {{.MaxLength}} characters

Context:
{{.Context}}

Write an explanation of why the correct answer is right, grounded only in the context above.

Respond with a JSON object with exactly these fields:
{
  "explanation": string,
  "sourceReferences": [string, ...]
}

sourceReferences must name only sources that appear in the context block above. Do not include any text outside the JSON object.`

// ExplanationParams feeds C7's generateExplanation operation (spec.md §4.7).
type ExplanationParams struct {
	Question      string
	CorrectAnswer string
	Context       []retrieval.Candidate
	Style         string
	Audience      string
	MaxLength     int
}

func ExplanationPrompt(p ExplanationParams) (system, user string, err error) {
	user, err = newRenderer(explanationUserTemplate).
		with("Question", p.Question).
		with("CorrectAnswer", p.CorrectAnswer).
		with("Style", p.Style).
		with("Audience", p.Audience).
		with("MaxLength", p.MaxLength).
		with("Context", ContextBlock(p.Context)).
		render()
	return explanationSystemPrompt, user, err
}

const followupSystemPrompt = `You are answering a student's follow-up question about a securities and finance certification topic, using only the supplied context and prior exchanges. You answer only with a single JSON object and nothing else.`

const followupUserTemplate = `Topic: {{.Topic}}
Original question: {{.Question}}

Prior exchanges:
{{.Exchanges}}

Context:
{{.Context}}

Answer the student's follow-up question.

Respond with a JSON object with exactly this field:
{
  "answer": string
}

Do not include any text outside the JSON object.`

// FollowupParams feeds C7's generateFollowupResponse operation (spec.md
// §4.7).
type FollowupParams struct {
	Question          string
	Topic             string
	Context           []retrieval.Candidate
	PreviousExchanges []Exchange
}

func FollowupPrompt(p FollowupParams) (system, user string, err error) {
	user, err = newRenderer(followupUserTemplate).
		with("Topic", p.Topic).
		with("Question", p.Question).
		with("Exchanges", renderExchanges(p.PreviousExchanges)).
		with("Context", ContextBlock(p.Context)).
		render()
	return followupSystemPrompt, user, err
}

func renderExchanges(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return "(none)"
	}

	var b strings.Builder
	for i, e := range exchanges {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, e.Question, i+1, e.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
