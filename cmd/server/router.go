package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"financebuddy/core/apperr"
	"financebuddy/core/config"
	"financebuddy/core/flowmgr"
	"financebuddy/core/quiz"
	"financebuddy/core/session"
)

func newRouter(manager *flowmgr.Manager, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/sessions", handleCreateSession(manager, cfg))
	mux.HandleFunc("GET /api/sessions/{id}", handleGetSession(manager))
	mux.HandleFunc("GET /api/sessions/{id}/questions", handleListQuestions(manager))
	mux.HandleFunc("POST /api/sessions/{id}/reveal-answers", handleRevealAnswers(manager))
	mux.HandleFunc("GET /api/sessions/{id}/explanations", handleExplanations(manager))
	mux.HandleFunc("POST /api/sessions/{id}/followup", handleFollowup(manager))
	mux.HandleFunc("DELETE /api/sessions/{id}", handleDeleteSession(manager))
	mux.HandleFunc("POST /api/quiz/export", handleExportQuiz(manager))
	mux.HandleFunc("GET /api/quiz/export/{id}", handleExportQuizGet(manager))

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "financebuddy-core",
		"version":   "0.1.0",
		"timestamp": time.Now().UTC(),
	})
}

type createSessionRequest struct {
	Topic         string `json:"topic"`
	QuestionCount int    `json:"questionCount"`
	UserID        string `json:"userId"`
	Difficulty    string `json:"difficulty"`
}

func handleCreateSession(manager *flowmgr.Manager, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid request body"))
			return
		}

		if req.Difficulty == "" {
			req.Difficulty = cfg.DefaultDifficulty
		}
		if req.QuestionCount <= 0 {
			req.QuestionCount = 1
		}
		if req.QuestionCount > cfg.MaxQuestionsPerSession {
			writeError(w, apperr.New(apperr.KindValidation, "questionCount exceeds MAX_QUESTIONS_PER_SESSION"))
			return
		}

		if err := manager.Start(r.Context(), req.Topic, req.QuestionCount, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		if err := manager.GenerateQuestions(r.Context(), req.Difficulty); err != nil {
			writeError(w, err)
			return
		}

		state := manager.ViewState()
		writeJSON(w, http.StatusCreated, map[string]any{
			"session":   redactedSession(state.Session),
			"questions": publicQuestions(state.Session),
			"metadata":  viewMetadata(state),
		})
	}
}

func handleGetSession(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := requireSession(w, manager, r.PathValue("id"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session":        redactedSession(state.Session),
			"allowedActions": state.AllowedActions,
			"metadata":       viewMetadata(state),
		})
	}
}

func handleListQuestions(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := requireSession(w, manager, r.PathValue("id"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"questions": publicQuestions(state.Session),
		})
	}
}

type revealAnswersRequest struct {
	UserAnswers map[string]string `json:"userAnswers"`
}

func handleRevealAnswers(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSession(w, manager, r.PathValue("id")); !ok {
			return
		}

		var req revealAnswersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid request body"))
			return
		}

		if err := manager.RevealAnswers(r.Context(), req.UserAnswers); err != nil {
			writeError(w, err)
			return
		}

		state := manager.ViewState()
		writeJSON(w, http.StatusOK, map[string]any{
			"questions": scoredQuestions(state.Session),
			"score":     scoreSession(state.Session),
		})
	}
}

func handleExplanations(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSession(w, manager, r.PathValue("id")); !ok {
			return
		}

		if err := manager.ShowExplanations(r.Context()); err != nil {
			writeError(w, err)
			return
		}

		state := manager.ViewState()
		writeJSON(w, http.StatusOK, map[string]any{
			"questions": explainedQuestions(state.Session),
		})
	}
}

type followupRequest struct {
	Question string `json:"question"`
}

func handleFollowup(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSession(w, manager, r.PathValue("id")); !ok {
			return
		}

		var req followupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid request body"))
			return
		}

		current := manager.ViewState().Session
		var err error
		if current != nil && len(current.Exchanges) > 0 {
			err = manager.ContinueFollowup(r.Context(), req.Question)
		} else {
			err = manager.AskFollowup(r.Context(), req.Question)
		}
		if err != nil {
			writeError(w, err)
			return
		}

		state := manager.ViewState()
		var answer string
		if n := len(state.Session.Exchanges); n > 0 {
			answer = state.Session.Exchanges[n-1].Answer
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"question": req.Question,
			"answer":   answer,
			"history":  state.Session.Exchanges,
		})
	}
}

func handleDeleteSession(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSession(w, manager, r.PathValue("id")); !ok {
			return
		}
		if err := manager.Clear(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type exportQuizRequest struct {
	SessionID           string `json:"sessionId"`
	IncludeExplanations bool   `json:"includeExplanations"`
	DifficultyFilter    string `json:"difficultyFilter"`
	MaxQuestions        int    `json:"maxQuestions"`
	RandomizeOrder      bool   `json:"randomizeOrder"`
	Deduplicate         bool   `json:"deduplicate"`
}

func handleExportQuiz(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportQuizRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid request body"))
			return
		}
		exportQuiz(w, r, manager, req)
	}
}

func handleExportQuizGet(manager *flowmgr.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exportQuiz(w, r, manager, exportQuizRequest{
			SessionID:           r.PathValue("id"),
			IncludeExplanations: r.URL.Query().Get("includeExplanations") == "true",
			DifficultyFilter:    r.URL.Query().Get("difficultyFilter"),
		})
	}
}

func exportQuiz(w http.ResponseWriter, r *http.Request, manager *flowmgr.Manager, req exportQuizRequest) {
	state, ok := requireSession(w, manager, req.SessionID)
	if !ok {
		return
	}

	quizResult, err := quiz.Export(
		state.Session.Topic+" Quiz",
		state.Session.Topic,
		req.DifficultyFilter,
		state.Session.Questions,
		state.Session.Explanations,
		quiz.Options{
			IncludeExplanations: req.IncludeExplanations,
			DifficultyFilter:    req.DifficultyFilter,
			MaxQuestions:        req.MaxQuestions,
			RandomizeOrder:      req.RandomizeOrder,
			Deduplicate:         req.Deduplicate,
		},
		time.Now(),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResult)
}

func requireSession(w http.ResponseWriter, manager *flowmgr.Manager, id string) (flowmgr.ViewState, bool) {
	state := manager.ViewState()
	if state.Session == nil || state.Session.ID != id {
		writeError(w, apperr.New(apperr.KindNotFound, "unknown or expired session"))
		return flowmgr.ViewState{}, false
	}
	return state, true
}

func viewMetadata(state flowmgr.ViewState) map[string]any {
	return map[string]any{
		"currentStep":     state.CurrentStep,
		"progress":        state.Progress,
		"stepDescription": state.StepDescription,
	}
}

// publicQuestion is the external question shape with correctAnswer and
// explanation withheld (spec.md §6's list-questions response).
type publicQuestion struct {
	ID           string            `json:"id"`
	QuestionText string            `json:"questionText"`
	Options      map[string]string `json:"options"`
	Difficulty   string            `json:"difficulty"`
}

func publicQuestions(s *session.Session) []publicQuestion {
	if s == nil {
		return nil
	}
	out := make([]publicQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = publicQuestion{ID: q.ID, QuestionText: q.QuestionText, Options: q.Options, Difficulty: q.Difficulty}
	}
	return out
}

type scoredQuestion struct {
	publicQuestion
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer,omitempty"`
}

func scoredQuestions(s *session.Session) []scoredQuestion {
	if s == nil {
		return nil
	}
	out := make([]scoredQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = scoredQuestion{
			publicQuestion: publicQuestion{ID: q.ID, QuestionText: q.QuestionText, Options: q.Options, Difficulty: q.Difficulty},
			CorrectAnswer:  q.CorrectAnswer,
			UserAnswer:     s.UserAnswers[q.ID],
		}
	}
	return out
}

type explainedQuestion struct {
	scoredQuestion
	Explanation      string   `json:"explanation"`
	SourceReferences []string `json:"sourceReferences"`
}

func explainedQuestions(s *session.Session) []explainedQuestion {
	if s == nil {
		return nil
	}
	out := make([]explainedQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = explainedQuestion{
			scoredQuestion: scoredQuestion{
				publicQuestion: publicQuestion{ID: q.ID, QuestionText: q.QuestionText, Options: q.Options, Difficulty: q.Difficulty},
				CorrectAnswer:  q.CorrectAnswer,
				UserAnswer:     s.UserAnswers[q.ID],
			},
			Explanation:      s.Explanations[q.ID],
			SourceReferences: q.SourceReferences,
		}
	}
	return out
}

type score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func scoreSession(s *session.Session) score {
	if s == nil || len(s.Questions) == 0 {
		return score{}
	}
	correct := 0
	for _, q := range s.Questions {
		if s.UserAnswers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	total := len(s.Questions)
	return score{Correct: correct, Total: total, Percentage: (correct * 100) / total}
}

func redactedSession(s *session.Session) map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{
		"id":        s.ID,
		"topic":     s.Topic,
		"count":     s.Count,
		"userId":    s.UserID,
		"step":      s.Step,
		"createdAt": s.CreatedAt,
		"expiresAt": s.ExpiresAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err to spec.md §7's uniform error response: kind-derived
// status, the message, allowed actions for an InvalidTransition, and a
// correlation id generated here (rather than trusting a client-supplied
// header) and echoed back instead of a stack trace.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindFatal
	message := err.Error()
	allowed := []string(nil)

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		kind = appErr.Kind
		allowed = appErr.Allowed
	}

	correlationID := uuid.NewString()
	if appErr != nil {
		appErr.WithCorrelationID(correlationID)
	}

	body := map[string]any{"error": message, "correlationId": correlationID}
	if len(allowed) > 0 {
		body["allowedActions"] = allowed
	}
	writeJSON(w, statusForKind(kind), body)
}
