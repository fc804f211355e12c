// Package flowmgr implements C12: the flow manager. It holds the single
// active session and drives it through C11's step machine, calling C8/C9
// and the LLM adapter as each step requires, and publishes a view-state
// record to subscribers on every change.
package flowmgr

import (
	"errors"
	"sync"

	"financebuddy/core/apperr"
	"financebuddy/core/explanation"
	"financebuddy/core/flowctl"
	"financebuddy/core/llm"
	"financebuddy/core/question"
	"financebuddy/core/retrieval"
	"financebuddy/core/session"
)

// ViewState is what C12 publishes on every change (spec.md §4.12).
type ViewState struct {
	CurrentStep     session.Step
	Progress        int
	StepDescription string
	IsLoading       bool
	Error           error
	AllowedActions  []flowctl.Action
	Session         *session.Session
}

// Subscriber receives a synchronous notification on every state change.
type Subscriber func(ViewState)

// Config wires C12 to its collaborators.
type Config struct {
	Store                session.Store
	Retriever            *retrieval.Retriever
	QuestionGenerator    *question.Generator
	ExplanationGenerator *explanation.Generator
	Adapter              llm.Adapter
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("flowmgr: config is nil")
	}
	if c.Store == nil {
		return errors.New("flowmgr: store is required")
	}
	if c.Retriever == nil {
		return errors.New("flowmgr: retriever is required")
	}
	if c.QuestionGenerator == nil {
		return errors.New("flowmgr: question generator is required")
	}
	if c.ExplanationGenerator == nil {
		return errors.New("flowmgr: explanation generator is required")
	}
	if c.Adapter == nil {
		return errors.New("flowmgr: adapter is required")
	}
	return nil
}

// Manager is C12.
type Manager struct {
	busy sync.Mutex

	store      session.Store
	retriever  *retrieval.Retriever
	questions  *question.Generator
	explainer  *explanation.Generator
	adapter    llm.Adapter
	currentID  string

	stateMu sync.RWMutex
	state   ViewState

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int
}

func NewManager(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Manager{
		store:       cfg.Store,
		retriever:   cfg.Retriever,
		questions:   cfg.QuestionGenerator,
		explainer:   cfg.ExplanationGenerator,
		adapter:     cfg.Adapter,
		state:       ViewState{CurrentStep: session.StepInput, AllowedActions: flowctl.GetAllowedActions(session.StepInput)},
		subscribers: make(map[int]Subscriber),
	}, nil
}

// Subscribe registers fn for every future state change and returns an
// unsubscribe function the caller may call at any time (spec.md §4.12).
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subscribers, id)
		m.subMu.Unlock()
	}
}

// ViewState returns the current view state.
func (m *Manager) ViewState() ViewState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *Manager) setState(state ViewState) {
	m.stateMu.Lock()
	m.state = state
	m.stateMu.Unlock()

	m.subMu.Lock()
	subscribers := make([]Subscriber, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// run serializes one flow operation against the manager's lock, failing
// fast with BUSY if another operation is already in flight (spec.md
// §4.12), and implements the shared error-handling contract: any error
// from fn sets view-state Error, resets IsLoading, and leaves CurrentStep
// untouched.
func (m *Manager) run(fn func() (*session.Session, session.Step, error)) error {
	if !m.busy.TryLock() {
		return apperr.New(apperr.KindConflict, "BUSY: a flow operation is already in progress")
	}
	defer m.busy.Unlock()

	current := m.ViewState()
	m.setState(ViewState{
		CurrentStep:     current.CurrentStep,
		Progress:        current.Progress,
		StepDescription: current.StepDescription,
		IsLoading:       true,
		AllowedActions:  current.AllowedActions,
		Session:         current.Session,
	})

	sess, nextStep, err := fn()
	if err != nil {
		m.setState(ViewState{
			CurrentStep:     current.CurrentStep,
			Progress:        current.Progress,
			StepDescription: current.StepDescription,
			IsLoading:       false,
			Error:           err,
			AllowedActions:  current.AllowedActions,
			Session:         current.Session,
		})
		return err
	}

	m.setState(ViewState{
		CurrentStep:     nextStep,
		Progress:        flowctl.Progress(nextStep),
		StepDescription: flowctl.StepDescription(nextStep),
		IsLoading:       false,
		AllowedActions:  flowctl.GetAllowedActions(nextStep),
		Session:         sess,
	})
	return nil
}
