package app

import (
	"testing"

	"classquiz-service/internal/domain"
)

func TestScoreCountsMatchingAnswers(t *testing.T) {
	questions := []domain.Question{
		{Text: "q0", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
		{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
		{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
	}
	answers := domain.AnswerSet{0: 1, 1: 2, 2: 3}

	correct, total := Score(questions, answers)
	if correct != 2 || total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", correct, total)
	}
}

func TestScoreUnansweredCountsIncorrect(t *testing.T) {
	questions := []domain.Question{
		{Text: "q0", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Text: "q1", Options: []string{"a", "b"}, CorrectIndex: 0},
	}

	correct, total := Score(questions, domain.AnswerSet{0: 0})
	if correct != 1 || total != 2 {
		t.Fatalf("expected 1/2 with one unanswered, got %d/%d", correct, total)
	}

	correct, total = Score(questions, domain.AnswerSet{})
	if correct != 0 || total != 2 {
		t.Fatalf("expected 0/2 with nothing answered, got %d/%d", correct, total)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	questions := []domain.Question{
		{Text: "q0", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
	}
	answers := domain.AnswerSet{0: 2}

	c1, t1 := Score(questions, answers)
	c2, t2 := Score(questions, answers)
	if c1 != c2 || t1 != t2 {
		t.Fatalf("expected identical output, got %d/%d then %d/%d", c1, t1, c2, t2)
	}
}

func TestScoreEmptyQuiz(t *testing.T) {
	correct, total := Score(nil, domain.AnswerSet{})
	if correct != 0 || total != 0 {
		t.Fatalf("expected 0/0 for empty quiz, got %d/%d", correct, total)
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0}, // zero-question quiz must not divide by zero
	}
	for _, tc := range cases {
		if got := Percentage(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Percentage(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}
