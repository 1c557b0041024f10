package domain

import "time"

// Question is a single multiple-choice item. Options are ordered and
// CorrectIndex must satisfy 0 <= CorrectIndex < len(Options).
type Question struct {
	Text         string   `json:"text"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Quiz is an ordered collection of questions owned by a teacher. Question
// order is significant: answers are keyed by position.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TeacherID   string     `json:"teacherId"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// QuizSummary is the list view of a quiz, without its questions.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TeacherID     string    `json:"teacherId"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnswerSet maps question position (0-based) to the chosen option index.
// It is sparse until every question has been answered.
type AnswerSet map[int]int

// Result is the immutable record of one completed session. Never updated
// or deleted once written.
type Result struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle,omitempty"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// NotificationNewQuiz is the only event type the channel carries.
const NotificationNewQuiz = "NEW_QUIZ"

// Notification is the transient broadcast payload sent when a quiz is
// created. It is never persisted; clients connected later never see it.
type Notification struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// NewQuizNotification builds the broadcast payload for a freshly created quiz.
func NewQuizNotification(title string) Notification {
	return Notification{Type: NotificationNewQuiz, Title: title}
}
