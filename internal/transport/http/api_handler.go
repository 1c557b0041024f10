package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
)

// APIHandler exposes the quiz authoring, session and results use cases
// over JSON HTTP.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts all routes on the router.
func (h *APIHandler) Register(r *mux.Router) {
	r.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	r.HandleFunc("/quizzes", h.listQuizzes).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}", h.deleteQuiz).Methods(http.MethodDelete)
	r.HandleFunc("/quizzes/{id}/results", h.quizResults).Methods(http.MethodGet)
	r.HandleFunc("/sessions", h.startSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", h.sessionState).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", h.abandonSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/answers", h.recordAnswer).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/advance", h.advance).Methods(http.MethodPost)
	r.HandleFunc("/students/{id}/results", h.studentResults).Methods(http.MethodGet)
}

type questionPayload struct {
	Text         string   `json:"text"`
	ImageURL     string   `json:"imageUrl"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TeacherID   string            `json:"teacherId"`
	Questions   []questionPayload `json:"questions"`
}

type createQuizResponse struct {
	ID string `json:"id"`
}

type startSessionRequest struct {
	QuizID    string `json:"quizId"`
	StudentID string `json:"studentId"`
}

type recordAnswerRequest struct {
	Position    int `json:"position"`
	OptionIndex int `json:"optionIndex"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for i, qp := range req.Questions {
		draft := app.NewQuestionDraft()
		draft.SetText(qp.Text)
		draft.SetImage(qp.ImageURL)
		for j, opt := range qp.Options {
			if err := draft.SetOption(j, opt); err != nil {
				writeError(w, err)
				return
			}
		}
		if err := draft.SetCorrectIndex(qp.CorrectIndex); err != nil {
			writeError(w, err)
			return
		}
		question, err := draft.Build()
		if err != nil {
			log.Printf("rejecting question %d: %v", i, err)
			writeError(w, err)
			return
		}
		questions = append(questions, question)
	}

	id, err := h.service.CreateQuiz(r.Context(), req.Title, req.Description, req.TeacherID, questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createQuizResponse{ID: id})
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.QuizSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *APIHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	if req.QuizID == "" || req.StudentID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "quizId and studentId are required"})
		return
	}
	view, err := h.service.StartSession(r.Context(), req.QuizID, req.StudentID)
	if err != nil && view.SessionID == "" {
		writeError(w, err)
		return
	}
	// A zero-question quiz completes on start; a result-write failure is
	// reported alongside the completed view.
	writeSessionView(w, http.StatusCreated, view, err)
}

func (h *APIHandler) sessionState(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentState(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) abandonSession(w http.ResponseWriter, r *http.Request) {
	h.service.AbandonSession(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	view, err := h.service.RecordAnswer(r.Context(), mux.Vars(r)["id"], req.Position, req.OptionIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Advance(r.Context(), mux.Vars(r)["id"])
	if err != nil && view.SessionID == "" {
		writeError(w, err)
		return
	}
	writeSessionView(w, http.StatusOK, view, err)
}

func (h *APIHandler) studentResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ResultsForStudent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *APIHandler) quizResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ResultsForQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// sessionResponse carries the view plus a submission warning when the
// result could not be persisted after retries.
type sessionResponse struct {
	app.SessionView
	SubmissionError string `json:"submissionError,omitempty"`
}

func writeSessionView(w http.ResponseWriter, status int, view app.SessionView, err error) {
	resp := sessionResponse{SessionView: view}
	if err != nil {
		resp.SubmissionError = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrPositionMismatch),
		errors.Is(err, domain.ErrOptionOutOfRange),
		errors.Is(err, domain.ErrUnanswered):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionCompleted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorPayload{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
