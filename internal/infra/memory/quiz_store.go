package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"classquiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore, used when no
// Postgres URL is configured and throughout the unit tests.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	// titles outlive quiz deletion so old results keep their quiz title.
	titles       map[string]string
	results      []domain.Result
	studentNames map[string]string
	clock        func() time.Time
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes:      make(map[string]domain.Quiz),
		titles:       make(map[string]string),
		studentNames: make(map[string]string),
		clock:        time.Now,
	}
}

// PutStudentName registers a display name for result listings.
func (s *QuizStore) PutStudentName(studentID, name string) {
	s.mu.Lock()
	s.studentNames[studentID] = name
	s.mu.Unlock()
}

func (s *QuizStore) GetQuizWithQuestions(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.QuizSummary, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		summaries = append(summaries, domain.QuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			Description:   quiz.Description,
			TeacherID:     quiz.TeacherID,
			QuestionCount: len(quiz.Questions),
			CreatedAt:     quiz.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (s *QuizStore) CreateQuizWithQuestions(_ context.Context, title, description, teacherID string, questions []domain.Question) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.quizzes[id] = domain.Quiz{
		ID:          id,
		Title:       title,
		Description: description,
		TeacherID:   teacherID,
		Questions:   questions,
		CreatedAt:   s.clock(),
	}
	s.titles[id] = title
	return id, nil
}

func (s *QuizStore) DeleteQuizCascade(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *QuizStore) RecordResult(_ context.Context, quizID, studentID string, score, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, domain.Result{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		QuizTitle:   s.titles[quizID],
		StudentID:   studentID,
		StudentName: s.displayNameLocked(studentID),
		Score:       score,
		Total:       total,
		SubmittedAt: s.clock(),
	})
	return nil
}

func (s *QuizStore) ListResultsForStudent(_ context.Context, studentID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Result
	for _, r := range s.results {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *QuizStore) ListResultsForQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Result
	for _, r := range s.results {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *QuizStore) displayNameLocked(studentID string) string {
	if name, ok := s.studentNames[studentID]; ok {
		return name
	}
	return studentID
}
