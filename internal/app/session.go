package app

import (
	"sync"
	"time"

	"classquiz-service/internal/domain"
)

// SessionState tracks where a session is in its lifecycle. There are no
// reverse transitions: InProgress moves forward one question at a time,
// Completed is terminal. The loading phase is the synchronous quiz fetch
// inside StartSession, so a stored session is never observed before
// InProgress.
type SessionState int

const (
	StateInProgress SessionState = iota
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Session drives one student through one quiz's questions in order. It is
// single-user and sequential; the mutex only guards against accidental
// concurrent calls, there is no cross-session shared state.
type Session struct {
	id        string
	studentID string
	quiz      domain.Quiz
	now       func() time.Time

	mu          sync.Mutex
	state       SessionState
	position    int
	answers     domain.AnswerSet
	score       int
	total       int
	startedAt   time.Time
	completedAt time.Time
}

// NewSession is exported for stores that need to seed sessions.
func NewSession(id, studentID string, quiz domain.Quiz) *Session {
	return newSessionWithClock(id, studentID, quiz, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, studentID string, quiz domain.Quiz, now func() time.Time) *Session {
	return newSessionWithClock(id, studentID, quiz, now)
}

func newSessionWithClock(id, studentID string, quiz domain.Quiz, now func() time.Time) *Session {
	s := &Session{
		id:        id,
		studentID: studentID,
		quiz:      quiz,
		now:       now,
		state:     StateInProgress,
		answers:   make(domain.AnswerSet),
		startedAt: now(),
	}
	// A quiz with no questions has no in-progress phase at all.
	if len(quiz.Questions) == 0 {
		s.state = StateCompleted
		s.score, s.total = 0, 0
		s.completedAt = s.startedAt
	}
	return s
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// StudentID returns the student the session belongs to.
func (s *Session) StudentID() string { return s.studentID }

// QuizID returns the quiz the session runs over.
func (s *Session) QuizID() string { return s.quiz.ID }

// RecordAnswer stores the chosen option for the current question. Only the
// currently displayed position may be answered; re-recording before
// advancing overwrites the previous choice.
func (s *Session) RecordAnswer(position, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return domain.ErrSessionCompleted
	}
	if position != s.position {
		return domain.ErrPositionMismatch
	}
	if optionIndex < 0 || optionIndex >= len(s.quiz.Questions[s.position].Options) {
		return domain.ErrOptionOutOfRange
	}
	s.answers[s.position] = optionIndex
	return nil
}

// Advance moves to the next question, or scores and completes the session
// when the current question is the last one. The current question must
// have a recorded answer. Returns true exactly once, on the transition
// into Completed.
func (s *Session) Advance() (completed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return false, domain.ErrSessionCompleted
	}
	if _, ok := s.answers[s.position]; !ok {
		return false, domain.ErrUnanswered
	}
	if s.position < len(s.quiz.Questions)-1 {
		s.position++
		return false, nil
	}
	s.score, s.total = Score(s.quiz.Questions, s.answers)
	s.state = StateCompleted
	s.completedAt = s.now()
	return true, nil
}

// Outcome reports the final score. Valid only once the session completed.
func (s *Session) Outcome() (score, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.total
}

// Snapshot returns the externally visible state of the session. The
// correct option index is never exposed while the quiz is being taken.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		SessionID:     s.id,
		QuizID:        s.quiz.ID,
		QuizTitle:     s.quiz.Title,
		StudentID:     s.studentID,
		State:         s.state.String(),
		Position:      s.position,
		QuestionCount: len(s.quiz.Questions),
	}
	switch s.state {
	case StateInProgress:
		q := s.quiz.Questions[s.position]
		view.Question = &QuestionView{
			Text:     q.Text,
			ImageURL: q.ImageURL,
			Options:  q.Options,
		}
		if chosen, ok := s.answers[s.position]; ok {
			c := chosen
			view.Answered = &c
		}
	case StateCompleted:
		view.Score = s.score
		view.Total = s.total
		view.Percentage = Percentage(s.score, s.total)
	}
	return view
}

// QuestionView is the student-facing projection of a question; the correct
// index stays server-side.
type QuestionView struct {
	Text     string   `json:"text"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Options  []string `json:"options"`
}

// SessionView is the wire representation of session state.
type SessionView struct {
	SessionID     string        `json:"sessionId"`
	QuizID        string        `json:"quizId"`
	QuizTitle     string        `json:"quizTitle"`
	StudentID     string        `json:"studentId"`
	State         string        `json:"state"`
	Position      int           `json:"position"`
	QuestionCount int           `json:"questionCount"`
	Question      *QuestionView `json:"question,omitempty"`
	Answered      *int          `json:"answered,omitempty"`
	Score         int           `json:"score,omitempty"`
	Total         int           `json:"total,omitempty"`
	Percentage    int           `json:"percentage,omitempty"`
}
