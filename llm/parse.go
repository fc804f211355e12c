package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

var validOptionKeys = []string{"A", "B", "C", "D"}

type rawQuestion struct {
	QuestionText     string            `json:"questionText"`
	Options          map[string]string `json:"options"`
	CorrectAnswer    string            `json:"correctAnswer"`
	Explanation      string            `json:"explanation"`
	SourceReferences []string          `json:"sourceReferences"`
	Difficulty       string            `json:"difficulty"`
}

func parseQuestions(content string) ([]Question, error) {
	var raw []rawQuestion
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("llm: malformed questions response: %w", err)
	}

	questions := make([]Question, len(raw))
	for i, r := range raw {
		if err := validateRawQuestion(r); err != nil {
			return nil, fmt.Errorf("llm: question %d: %w", i, err)
		}
		questions[i] = Question{
			QuestionText:     r.QuestionText,
			Options:          r.Options,
			CorrectAnswer:    r.CorrectAnswer,
			Explanation:      r.Explanation,
			SourceReferences: r.SourceReferences,
			Difficulty:       r.Difficulty,
		}
	}
	return questions, nil
}

func validateRawQuestion(r rawQuestion) error {
	if r.QuestionText == "" {
		return errors.New("questionText is empty")
	}
	for _, key := range validOptionKeys {
		if r.Options[key] == "" {
			return fmt.Errorf("option %s is missing", key)
		}
	}
	if !isValidOptionKey(r.CorrectAnswer) {
		return fmt.Errorf("correctAnswer %q is not one of A-D", r.CorrectAnswer)
	}
	if r.Explanation == "" {
		return errors.New("explanation is empty")
	}
	return nil
}

func isValidOptionKey(key string) bool {
	for _, k := range validOptionKeys {
		if k == key {
			return true
		}
	}
	return false
}

type rawAnswer struct {
	CorrectAnswer string `json:"correctAnswer"`
	Rationale     string `json:"rationale"`
}

func parseAnswer(content string) (AnswerResult, error) {
	var raw rawAnswer
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return AnswerResult{}, fmt.Errorf("llm: malformed answer response: %w", err)
	}
	if !isValidOptionKey(raw.CorrectAnswer) {
		return AnswerResult{}, fmt.Errorf("llm: correctAnswer %q is not one of A-D", raw.CorrectAnswer)
	}
	return AnswerResult{CorrectAnswer: raw.CorrectAnswer, Rationale: raw.Rationale}, nil
}

type rawExplanation struct {
	Explanation      string   `json:"explanation"`
	SourceReferences []string `json:"sourceReferences"`
}

func parseExplanation(content string) (ExplanationResult, error) {
	var raw rawExplanation
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return ExplanationResult{}, fmt.Errorf("llm: malformed explanation response: %w", err)
	}
	if raw.Explanation == "" {
		return ExplanationResult{}, errors.New("llm: explanation is empty")
	}
	return ExplanationResult{Explanation: raw.Explanation, SourceReferences: raw.SourceReferences}, nil
}

type rawFollowup struct {
	Answer string `json:"answer"`
}

func parseFollowup(content string) (string, error) {
	var raw rawFollowup
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return "", fmt.Errorf("llm: malformed followup response: %w", err)
	}
	if raw.Answer == "" {
		return "", errors.New("llm: answer is empty")
	}
	return raw.Answer, nil
}

// extractJSON strips any leading/trailing prose a model adds despite
// instructions, keeping only the outermost JSON array or object. Models are
// instructed to emit JSON only, but this is a cheap safety net before
// unmarshalling.
func extractJSON(content string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(content); i++ {
		if content[i] == '[' || content[i] == '{' {
			start = i
			open = content[i]
			if open == '[' {
				close = ']'
			} else {
				close = '}'
			}
			break
		}
	}
	if start == -1 {
		return content
	}

	for i := len(content) - 1; i >= start; i-- {
		if content[i] == close {
			return content[start : i+1]
		}
	}
	return content[start:]
}
