package flowmgr

import (
	"context"
	"fmt"

	"financebuddy/core/flowctl"
	"financebuddy/core/prompt"
	"financebuddy/core/session"
	"financebuddy/core/vectorstore"
)

// Start creates a new session at StepInput and makes it the active session
// (spec.md §4.10's create, surfaced through C12).
func (m *Manager) Start(ctx context.Context, topic string, count int, userID string) error {
	return m.run(func() (*session.Session, session.Step, error) {
		sess, err := m.store.Create(ctx, topic, count, userID)
		if err != nil {
			return nil, "", err
		}
		m.currentID = sess.ID
		return &sess, session.StepInput, nil
	})
}

// GenerateQuestions implements the input -> questions transition (spec.md
// §4.11): validates the action, calls C8, and attaches the result.
func (m *Manager) GenerateQuestions(ctx context.Context, difficulty string) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}

		nextStep, err := flowctl.NextStep(current.Step, flowctl.ActionGenerateQuestions)
		if err != nil {
			return nil, "", err
		}

		generated, err := m.questions.Generate(ctx, current.Topic, current.Count, difficulty)
		if err != nil {
			return nil, "", err
		}

		updated, err := m.store.Update(ctx, m.currentID, func(s session.Session) (session.Session, error) {
			s = s.Clone()
			s.Questions = generated.Questions
			s.Step = nextStep
			return s, nil
		})
		if err != nil {
			return nil, "", err
		}
		return &updated, nextStep, nil
	})
}

// RevealAnswers implements questions -> answers: attach userAnswers
// (spec.md §4.11).
func (m *Manager) RevealAnswers(ctx context.Context, answers map[string]string) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}

		nextStep, err := flowctl.NextStep(current.Step, flowctl.ActionRevealAnswers)
		if err != nil {
			return nil, "", err
		}

		updated, err := m.store.Update(ctx, m.currentID, func(s session.Session) (session.Session, error) {
			s = s.Clone()
			for id, answer := range answers {
				s.UserAnswers[id] = answer
			}
			s.Step = nextStep
			return s, nil
		})
		if err != nil {
			return nil, "", err
		}
		return &updated, nextStep, nil
	})
}

// ShowExplanations implements answers -> explanations: fill explanations,
// calling C9 only for questions whose generated explanation was empty
// (spec.md §4.9/§4.11).
func (m *Manager) ShowExplanations(ctx context.Context) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}

		nextStep, err := flowctl.NextStep(current.Step, flowctl.ActionShowExplanations)
		if err != nil {
			return nil, "", err
		}

		explanations := make(map[string]string, len(current.Questions))
		for k, v := range current.Explanations {
			explanations[k] = v
		}

		for _, q := range current.Questions {
			if q.Explanation != "" {
				explanations[q.ID] = q.Explanation
				continue
			}

			correctText := q.Options[q.CorrectAnswer]
			result := m.explainer.Explain(ctx, current.Topic, q.QuestionText, q.CorrectAnswer, correctText)
			explanations[q.ID] = result.Explanation
		}

		updated, err := m.store.Update(ctx, m.currentID, func(s session.Session) (session.Session, error) {
			s = s.Clone()
			s.Explanations = explanations
			s.Step = nextStep
			return s, nil
		})
		if err != nil {
			return nil, "", err
		}
		return &updated, nextStep, nil
	})
}

// AskFollowup implements explanations -> followup: append exchange
// (spec.md §4.11).
func (m *Manager) AskFollowup(ctx context.Context, questionText string) error {
	return m.askOrContinue(ctx, flowctl.ActionAskFollowup, questionText)
}

// ContinueFollowup implements followup -> followup: append exchange
// (spec.md §4.11).
func (m *Manager) ContinueFollowup(ctx context.Context, questionText string) error {
	return m.askOrContinue(ctx, flowctl.ActionContinueFollowup, questionText)
}

func (m *Manager) askOrContinue(ctx context.Context, action flowctl.Action, questionText string) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}

		toStep, err := flowctl.NextStep(current.Step, action)
		if err != nil {
			return nil, "", err
		}

		query := fmt.Sprintf("%s %s", current.Topic, questionText)
		context_, err := m.retriever.Basic(ctx, query, vectorstore.SearchOptions{Limit: 5})
		if err != nil {
			return nil, "", err
		}

		exchanges := make([]prompt.Exchange, len(current.Exchanges))
		for i, e := range current.Exchanges {
			exchanges[i] = prompt.Exchange{Question: e.Question, Answer: e.Answer}
		}

		answer, err := m.adapter.GenerateFollowupResponse(ctx, prompt.FollowupParams{
			Question:          questionText,
			Topic:             current.Topic,
			Context:           context_,
			PreviousExchanges: exchanges,
		})
		if err != nil {
			return nil, "", err
		}

		updated, err := m.store.Update(ctx, m.currentID, func(s session.Session) (session.Session, error) {
			s = s.Clone()
			s.Exchanges = append(s.Exchanges, session.Exchange{Question: questionText, Answer: answer})
			s.Step = toStep
			return s, nil
		})
		if err != nil {
			return nil, "", err
		}
		return &updated, toStep, nil
	})
}

// Restart implements the any-step -> input transition: a brand new session
// preserving topic and count (spec.md §4.11). Valid from every step, so
// flowctl.NextStep is consulted for the sentinel-validated destination
// (NextStepRestart) but the real destination step is always StepInput on
// the freshly created session.
func (m *Manager) Restart(ctx context.Context) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}

		if _, err := flowctl.NextStep(current.Step, flowctl.ActionRestart); err != nil {
			return nil, "", err
		}

		sess, err := m.store.Create(ctx, current.Topic, current.Count, current.UserID)
		if err != nil {
			return nil, "", err
		}
		m.currentID = sess.ID
		return &sess, session.StepInput, nil
	})
}

// Clear implements the any-step -> deleted transition (spec.md §4.11). Like
// Restart, valid from every step; flowctl.NextStep (NextStepClear) is
// consulted for validation only, since there is no session left to carry a
// real step once it's deleted.
func (m *Manager) Clear(ctx context.Context) error {
	return m.run(func() (*session.Session, session.Step, error) {
		current, err := m.store.Get(ctx, m.currentID)
		if err != nil {
			return nil, "", err
		}
		if _, err := flowctl.NextStep(current.Step, flowctl.ActionClear); err != nil {
			return nil, "", err
		}

		if err := m.store.Delete(ctx, m.currentID); err != nil {
			return nil, "", err
		}
		m.currentID = ""
		return nil, session.StepInput, nil
	})
}
