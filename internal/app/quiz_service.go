package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"classquiz-service/internal/domain"
)

// QuizStore persists quizzes, questions and results.
type QuizStore interface {
	GetQuizWithQuestions(ctx context.Context, id string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	CreateQuizWithQuestions(ctx context.Context, title, description, teacherID string, questions []domain.Question) (string, error)
	DeleteQuizCascade(ctx context.Context, id string) error
	RecordResult(ctx context.Context, quizID, studentID string, score, total int) error
	ListResultsForStudent(ctx context.Context, studentID string) ([]domain.Result, error)
	ListResultsForQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
}

// QuizCache fronts quiz reads with a TTL cache (in-memory or Redis).
type QuizCache interface {
	GetQuizWithQuestions(ctx context.Context, id string) (domain.Quiz, error)
	Invalidate(ctx context.Context, id string)
}

// SessionRepository holds in-progress sessions.
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// Broadcaster fans a notification out to every connected listener.
type Broadcaster interface {
	Broadcast(n domain.Notification)
}

// SubmissionGuard suppresses duplicate result rows for the same session.
// FirstSubmission reports whether this (quiz, student, session) triple has
// not been submitted before.
type SubmissionGuard interface {
	FirstSubmission(ctx context.Context, quizID, studentID, sessionID string) (bool, error)
}

// QuizService contains the quiz authoring and assessment use cases.
type QuizService struct {
	store         QuizStore
	cache         QuizCache
	sessions      SessionRepository
	notifier      Broadcaster
	guard         SubmissionGuard
	submitRetries int
	newID         func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithSubmissionGuard enables cross-process duplicate-result suppression.
func WithSubmissionGuard(g SubmissionGuard) Option {
	return func(s *QuizService) { s.guard = g }
}

// WithSubmitRetries bounds result persistence attempts (minimum 1).
func WithSubmitRetries(n int) Option {
	return func(s *QuizService) {
		if n > 0 {
			s.submitRetries = n
		}
	}
}

// WithIDGenerator is test-only for deterministic session ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *QuizService) { s.newID = gen }
}

func NewQuizService(store QuizStore, cache QuizCache, sessions SessionRepository, notifier Broadcaster, opts ...Option) *QuizService {
	s := &QuizService{
		store:         store,
		cache:         cache,
		sessions:      sessions,
		notifier:      notifier,
		submitRetries: 3,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateQuiz validates and persists a quiz with its questions as one unit,
// then broadcasts a NEW_QUIZ event to connected students. Broadcast
// delivery never gates or fails the creation.
func (s *QuizService) CreateQuiz(ctx context.Context, title, description, teacherID string, questions []domain.Question) (string, error) {
	if title == "" {
		return "", fmt.Errorf("%w: empty title", domain.ErrInvalidQuestion)
	}
	for i, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return "", fmt.Errorf("question %d: %w", i, err)
		}
	}

	id, err := s.store.CreateQuizWithQuestions(ctx, title, description, teacherID, questions)
	if err != nil {
		return "", err
	}
	s.notifier.Broadcast(domain.NewQuizNotification(title))
	return id, nil
}

// ListQuizzes returns quiz summaries without questions.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.store.ListQuizzes(ctx)
}

// GetQuiz returns a quiz with its questions, via the read cache.
func (s *QuizService) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.cache.GetQuizWithQuestions(ctx, id)
}

// DeleteQuiz removes the quiz and its questions atomically. Results stay.
func (s *QuizService) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.store.DeleteQuizCascade(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// StartSession begins a new session for a quiz. An unknown quiz id is a
// terminal error; the session never reaches in-progress. A quiz with zero
// questions completes immediately at 0/0 and its result is recorded.
func (s *QuizService) StartSession(ctx context.Context, quizID, studentID string) (SessionView, error) {
	quiz, err := s.cache.GetQuizWithQuestions(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}

	session := NewSession(s.newID(), studentID, quiz)
	s.sessions.Put(session)

	if view := session.Snapshot(); view.State != StateCompleted.String() {
		return view, nil
	}
	err = s.submitResult(ctx, session)
	return session.Snapshot(), err
}

// RecordAnswer stores the chosen option for the session's current question.
func (s *QuizService) RecordAnswer(ctx context.Context, sessionID string, position, optionIndex int) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	if err := session.RecordAnswer(position, optionIndex); err != nil {
		return SessionView{}, err
	}
	return session.Snapshot(), nil
}

// Advance moves the session forward; completing the last question scores
// the answer set and records the result. A persistence failure is surfaced
// to the caller but the session still completes with its score.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	completed, err := session.Advance()
	if err != nil {
		return SessionView{}, err
	}
	if !completed {
		return session.Snapshot(), nil
	}
	err = s.submitResult(ctx, session)
	return session.Snapshot(), err
}

// CurrentState returns the session's externally visible state.
func (s *QuizService) CurrentState(sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// AbandonSession discards an in-progress session and its answer set. No
// signal is sent anywhere; nothing was persisted yet.
func (s *QuizService) AbandonSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// ResultsForStudent lists a student's results joined with quiz titles.
func (s *QuizService) ResultsForStudent(ctx context.Context, studentID string) ([]domain.Result, error) {
	return s.store.ListResultsForStudent(ctx, studentID)
}

// ResultsForQuiz lists a quiz's results joined with student names.
func (s *QuizService) ResultsForQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.store.ListResultsForQuiz(ctx, quizID)
}

func (s *QuizService) submitResult(ctx context.Context, session *Session) error {
	if s.guard != nil {
		first, err := s.guard.FirstSubmission(ctx, session.QuizID(), session.StudentID(), session.ID())
		if err != nil {
			log.Printf("submission guard unavailable, proceeding: %v", err)
		} else if !first {
			return nil
		}
	}

	score, total := session.Outcome()
	var err error
	for attempt := 1; attempt <= s.submitRetries; attempt++ {
		err = s.store.RecordResult(ctx, session.QuizID(), session.StudentID(), score, total)
		if err == nil {
			return nil
		}
		log.Printf("record result attempt %d/%d failed: %v", attempt, s.submitRetries, err)
	}
	return fmt.Errorf("record result: %w", err)
}
