// Package session implements C10: the study-session store. A session
// carries a study flow's state (topic, generated questions, recorded
// answers, explanations, follow-up exchanges) through C11/C12's step
// machine.
package session

import (
	"time"

	"financebuddy/core/question"
)

// Step mirrors C11's step machine (spec.md §4.11); stored on the session so
// the flow controller can resume from it.
type Step string

const (
	StepInput        Step = "input"
	StepQuestions    Step = "questions"
	StepAnswers      Step = "answers"
	StepExplanations Step = "explanations"
	StepFollowup     Step = "followup"
)

// Exchange is one follow-up question/answer turn (spec.md §4.11's "append
// exchange").
type Exchange struct {
	Question string
	Answer   string
}

// Session is the unit this store manages. Version increments on every
// successful Update, and is the value Update's compare-and-swap checks
// (spec.md §4.10).
type Session struct {
	ID     string
	Topic  string
	Count  int
	UserID string

	Step Step

	Questions    []question.Question
	UserAnswers  map[string]string // questionID -> selected option key
	Explanations map[string]string // questionID -> explanation text
	Exchanges    []Exchange

	CreatedAt time.Time
	ExpiresAt time.Time
	Version   int
}

func (s Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Clone returns a deep-enough copy for mutator functions to work from
// without aliasing the stored session's maps/slices.
func (s Session) Clone() Session {
	clone := s
	clone.Questions = append([]question.Question(nil), s.Questions...)
	clone.Exchanges = append([]Exchange(nil), s.Exchanges...)

	clone.UserAnswers = make(map[string]string, len(s.UserAnswers))
	for k, v := range s.UserAnswers {
		clone.UserAnswers[k] = v
	}
	clone.Explanations = make(map[string]string, len(s.Explanations))
	for k, v := range s.Explanations {
		clone.Explanations[k] = v
	}
	return clone
}
