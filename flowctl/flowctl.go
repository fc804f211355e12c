// Package flowctl implements C11: the finite state machine over a study
// session's steps. It holds no session state itself — it is the single
// source of truth C12 consults before asking a session to advance.
package flowctl

import (
	"financebuddy/core/apperr"
	"financebuddy/core/session"
)

// Action is a user- or system-initiated transition trigger (spec.md
// §4.11's transition table).
type Action string

const (
	ActionGenerateQuestions Action = "generate_questions"
	ActionRevealAnswers     Action = "reveal_answers"
	ActionShowExplanations  Action = "show_explanations"
	ActionAskFollowup       Action = "ask_followup"
	ActionContinueFollowup  Action = "continue_followup"
	ActionRestart           Action = "restart"
	ActionClear             Action = "clear"
)

// transitions holds every step-specific edge from spec.md §4.11's table.
// restart and clear are valid from any step and are handled separately
// below rather than repeated in every row.
var transitions = map[session.Step]map[Action]session.Step{
	session.StepInput:        {ActionGenerateQuestions: session.StepQuestions},
	session.StepQuestions:    {ActionRevealAnswers: session.StepAnswers},
	session.StepAnswers:      {ActionShowExplanations: session.StepExplanations},
	session.StepExplanations: {ActionAskFollowup: session.StepFollowup},
	session.StepFollowup:     {ActionContinueFollowup: session.StepFollowup},
}

// progress maps each step to its UI progress percentage (spec.md §4.11).
var progress = map[session.Step]int{
	session.StepInput:        0,
	session.StepQuestions:    25,
	session.StepAnswers:      50,
	session.StepExplanations: 75,
	session.StepFollowup:     100,
}

var stepDescriptions = map[session.Step]string{
	session.StepInput:        "Enter a topic and question count to begin",
	session.StepQuestions:    "Answer the generated questions",
	session.StepAnswers:      "Review your answers",
	session.StepExplanations: "Read the explanations",
	session.StepFollowup:     "Ask a follow-up question",
}

// GetAllowedActions is the single source of truth UIs consult for what's
// clickable from a given step (spec.md §4.11).
func GetAllowedActions(step session.Step) []Action {
	allowed := make([]Action, 0, 3)
	for action := range transitions[step] {
		allowed = append(allowed, action)
	}
	allowed = append(allowed, ActionRestart, ActionClear)
	return allowed
}

// ValidationResult is validateAction's return shape (spec.md §4.11).
type ValidationResult struct {
	Valid          bool
	AllowedActions []Action
	Err            error
}

// ValidateAction reports whether action is legal from step, without
// mutating anything.
func ValidateAction(step session.Step, action Action) ValidationResult {
	allowed := GetAllowedActions(step)

	if action == ActionRestart || action == ActionClear {
		return ValidationResult{Valid: true, AllowedActions: allowed}
	}

	if _, ok := transitions[step][action]; !ok {
		allowedStrings := make([]string, len(allowed))
		for i, a := range allowed {
			allowedStrings[i] = string(a)
		}
		return ValidationResult{
			Valid:          false,
			AllowedActions: allowed,
			Err: apperr.WithAllowed(apperr.KindInvalidTransition,
				"INVALID_TRANSITION: action "+string(action)+" is not valid from step "+string(step),
				allowedStrings),
		}
	}

	return ValidationResult{Valid: true, AllowedActions: allowed}
}

// NextStep resolves the destination step for action from step. restart and
// clear are reported via their own sentinel steps: callers (C12) translate
// NextStepRestart into creating a fresh session and NextStepClear into
// deleting the current one; flowctl itself holds no session reference to
// act on.
const (
	NextStepRestart session.Step = "__restart__"
	NextStepClear   session.Step = "__clear__"
)

func NextStep(step session.Step, action Action) (session.Step, error) {
	result := ValidateAction(step, action)
	if !result.Valid {
		return "", result.Err
	}

	switch action {
	case ActionRestart:
		return NextStepRestart, nil
	case ActionClear:
		return NextStepClear, nil
	default:
		return transitions[step][action], nil
	}
}

// Progress returns the UI progress percentage for step.
func Progress(step session.Step) int {
	return progress[step]
}

// StepDescription returns a short human-readable description of step, fed
// into C12's view-state record.
func StepDescription(step session.Step) string {
	return stepDescriptions[step]
}
