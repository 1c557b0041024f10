package app

import (
	"math"

	"classquiz-service/internal/domain"
)

// Score counts how many answered positions match the question's correct
// option. Unanswered positions count as incorrect; total is always the
// number of questions. Pure and deterministic.
func Score(questions []domain.Question, answers domain.AnswerSet) (correct, total int) {
	total = len(questions)
	for i, q := range questions {
		chosen, ok := answers[i]
		if !ok {
			continue
		}
		if chosen == q.CorrectIndex {
			correct++
		}
	}
	return correct, total
}

// Percentage returns the rounded percentage for a score. A zero total is
// defined as 0 so display code never divides by zero.
func Percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
