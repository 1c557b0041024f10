package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz is absent from the store.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted rejects mutations on a terminal session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrPositionMismatch rejects answers addressed to any position other
	// than the currently displayed question.
	ErrPositionMismatch = errors.New("answer position does not match current question")
	// ErrOptionOutOfRange rejects option indexes outside [0, len(options)).
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrUnanswered blocks advancing past a question with no recorded answer.
	ErrUnanswered = errors.New("current question has no recorded answer")
	// ErrInvalidQuestion indicates malformed authoring data.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrStoreUnavailable tags failures reaching the backing store so
	// callers can map them without inspecting driver errors.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)
