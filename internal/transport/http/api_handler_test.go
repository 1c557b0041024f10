package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
	"classquiz-service/internal/infra/memory"
	"classquiz-service/internal/notify"
)

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func decodeInto(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

type sessionViewJSON struct {
	SessionID     string `json:"sessionId"`
	State         string `json:"state"`
	Position      int    `json:"position"`
	QuestionCount int    `json:"questionCount"`
	Question      *struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
	} `json:"question"`
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func createMathQuiz(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, raw := postJSON(t, server.URL+"/quizzes", map[string]any{
		"title":     "Math Basics",
		"teacherId": "teacher-1",
		"questions": []map[string]any{
			{"text": "What is 2 + 2?", "options": []string{"3", "4", "5", "6"}, "correctIndex": 1},
			{"text": "What is 1 + 0?", "options": []string{"1", "2", "3", "4"}, "correctIndex": 0},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create quiz: status %d body %s", resp.StatusCode, raw)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, raw, &created)
	return created.ID
}

func TestSessionFlowOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	quizID := createMathQuiz(t, server)

	resp, raw := postJSON(t, server.URL+"/sessions", map[string]string{
		"quizId": quizID, "studentId": "student-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: status %d body %s", resp.StatusCode, raw)
	}
	var view sessionViewJSON
	decodeInto(t, raw, &view)
	if view.State != "in_progress" || view.Position != 0 || view.QuestionCount != 2 {
		t.Fatalf("unexpected start view %+v", view)
	}
	if view.Question == nil || view.Question.Text != "What is 2 + 2?" {
		t.Fatalf("expected first question, got %+v", view.Question)
	}

	sessionURL := server.URL + "/sessions/" + view.SessionID

	// Correct answer to question 0.
	resp, raw = postJSON(t, sessionURL+"/answers", map[string]int{"position": 0, "optionIndex": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record answer: status %d body %s", resp.StatusCode, raw)
	}
	resp, raw = postJSON(t, sessionURL+"/advance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance: status %d body %s", resp.StatusCode, raw)
	}
	decodeInto(t, raw, &view)
	if view.Position != 1 {
		t.Fatalf("expected position 1, got %d", view.Position)
	}

	// Wrong answer to question 1.
	resp, raw = postJSON(t, sessionURL+"/answers", map[string]int{"position": 1, "optionIndex": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record answer: status %d body %s", resp.StatusCode, raw)
	}
	resp, raw = postJSON(t, sessionURL+"/advance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final advance: status %d body %s", resp.StatusCode, raw)
	}
	decodeInto(t, raw, &view)
	if view.State != "completed" || view.Score != 1 || view.Total != 2 || view.Percentage != 50 {
		t.Fatalf("expected completed 1/2 at 50%%, got %+v", view)
	}

	// The result is visible to both teacher and student listings.
	for _, url := range []string{
		server.URL + "/quizzes/" + quizID + "/results",
		server.URL + "/students/student-1/results",
	} {
		res, err := http.Get(url)
		if err != nil {
			t.Fatalf("get %s: %v", url, err)
		}
		var results []struct {
			Score int `json:"score"`
			Total int `json:"total"`
		}
		if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
			t.Fatalf("decode results: %v", err)
		}
		res.Body.Close()
		if len(results) != 1 || results[0].Score != 1 || results[0].Total != 2 {
			t.Fatalf("unexpected results at %s: %+v", url, results)
		}
	}
}

func TestSessionValidationErrors(t *testing.T) {
	server, _ := newTestServer(t)
	quizID := createMathQuiz(t, server)

	_, raw := postJSON(t, server.URL+"/sessions", map[string]string{
		"quizId": quizID, "studentId": "student-1",
	})
	var view sessionViewJSON
	decodeInto(t, raw, &view)
	sessionURL := server.URL + "/sessions/" + view.SessionID

	// Answering a non-current position is rejected.
	resp, _ := postJSON(t, sessionURL+"/answers", map[string]int{"position": 1, "optionIndex": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for position mismatch, got %d", resp.StatusCode)
	}
	// Option index outside [0, 4) is rejected.
	resp, _ = postJSON(t, sessionURL+"/answers", map[string]int{"position": 0, "optionIndex": 4})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for option out of range, got %d", resp.StatusCode)
	}
	// Advancing without an answer is blocked.
	resp, _ = postJSON(t, sessionURL+"/advance", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unanswered advance, got %d", resp.StatusCode)
	}
}

func TestStartSessionUnknownQuizIs404(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := postJSON(t, server.URL+"/sessions", map[string]string{
		"quizId": "missing", "studentId": "student-1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateQuizRejectsBadAuthoring(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := postJSON(t, server.URL+"/quizzes", map[string]any{
		"title":     "Broken",
		"teacherId": "teacher-1",
		"questions": []map[string]any{
			{"text": "q", "options": []string{"a", "b", "c", "d"}, "correctIndex": 4},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-bounds correct index, got %d", resp.StatusCode)
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	server, _ := newTestServer(t)
	quizID := createMathQuiz(t, server)

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/quizzes/"+quizID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	res, err := http.Get(server.URL + "/quizzes/" + quizID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.StatusCode)
	}
}

// downStore simulates an unreachable backing store.
type downStore struct{}

var errStoreDown = fmt.Errorf("dial tcp 127.0.0.1:5432: %w", domain.ErrStoreUnavailable)

func (downStore) GetQuizWithQuestions(context.Context, string) (domain.Quiz, error) {
	return domain.Quiz{}, errStoreDown
}

func (downStore) ListQuizzes(context.Context) ([]domain.QuizSummary, error) {
	return nil, errStoreDown
}

func (downStore) CreateQuizWithQuestions(context.Context, string, string, string, []domain.Question) (string, error) {
	return "", errStoreDown
}

func (downStore) DeleteQuizCascade(context.Context, string) error { return errStoreDown }

func (downStore) RecordResult(context.Context, string, string, int, int) error {
	return errStoreDown
}

func (downStore) ListResultsForStudent(context.Context, string) ([]domain.Result, error) {
	return nil, errStoreDown
}

func (downStore) ListResultsForQuiz(context.Context, string) ([]domain.Result, error) {
	return nil, errStoreDown
}

func TestStoreOutageMapsToBadGateway(t *testing.T) {
	registry := notify.NewRegistry()
	service := app.NewQuizService(downStore{}, memory.NewQuizCache(downStore{}, time.Minute),
		memory.NewSessionStore(), registry)
	router := mux.NewRouter()
	NewAPIHandler(service).Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		registry.Close()
		server.Close()
	})

	res, err := http.Get(server.URL + "/quizzes")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 listing quizzes, got %d", res.StatusCode)
	}

	resp, raw := postJSON(t, server.URL+"/quizzes", map[string]any{
		"title":     "Science Quiz",
		"teacherId": "teacher-1",
		"questions": []map[string]any{
			{"text": "q", "options": []string{"a", "b", "c", "d"}, "correctIndex": 0},
		},
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 creating quiz, got %d body %s", resp.StatusCode, raw)
	}
}

func TestListQuizzesOmitsQuestions(t *testing.T) {
	server, _ := newTestServer(t)
	createMathQuiz(t, server)

	res, err := http.Get(server.URL + "/quizzes")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer res.Body.Close()

	var summaries []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if _, ok := summaries[0]["questions"]; ok {
		t.Fatalf("summaries must not carry questions: %v", summaries[0])
	}
	if got := summaries[0]["questionCount"]; fmt.Sprintf("%v", got) != "2" {
		t.Fatalf("expected questionCount 2, got %v", got)
	}
}
