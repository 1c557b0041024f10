package app

import (
	"fmt"
	"strings"

	"classquiz-service/internal/domain"
)

const draftOptionCount = 4

// QuestionDraft is the authoring-side mutable form of a question. Fields
// change only through the explicit setters below; Build validates the
// whole draft before it becomes a domain.Question.
type QuestionDraft struct {
	text         string
	imageURL     string
	options      [draftOptionCount]string
	correctIndex int
}

// NewQuestionDraft returns an empty draft with no correct option chosen.
func NewQuestionDraft() *QuestionDraft {
	return &QuestionDraft{correctIndex: -1}
}

// SetText sets the question prompt.
func (d *QuestionDraft) SetText(text string) { d.text = text }

// SetImage sets the optional illustration URL.
func (d *QuestionDraft) SetImage(url string) { d.imageURL = url }

// SetOption replaces option i.
func (d *QuestionDraft) SetOption(i int, value string) error {
	if i < 0 || i >= draftOptionCount {
		return fmt.Errorf("%w: option index %d", domain.ErrInvalidQuestion, i)
	}
	d.options[i] = value
	return nil
}

// SetCorrectIndex marks option i as the correct one.
func (d *QuestionDraft) SetCorrectIndex(i int) error {
	if i < 0 || i >= draftOptionCount {
		return fmt.Errorf("%w: correct index %d", domain.ErrInvalidQuestion, i)
	}
	d.correctIndex = i
	return nil
}

// Build validates the draft and returns the immutable question.
func (d *QuestionDraft) Build() (domain.Question, error) {
	if strings.TrimSpace(d.text) == "" {
		return domain.Question{}, fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	for i, opt := range d.options {
		if strings.TrimSpace(opt) == "" {
			return domain.Question{}, fmt.Errorf("%w: empty option %d", domain.ErrInvalidQuestion, i)
		}
	}
	if d.correctIndex < 0 || d.correctIndex >= draftOptionCount {
		return domain.Question{}, fmt.Errorf("%w: no correct option chosen", domain.ErrInvalidQuestion)
	}
	options := make([]string, draftOptionCount)
	copy(options, d.options[:])
	return domain.Question{
		Text:         d.text,
		ImageURL:     d.imageURL,
		Options:      options,
		CorrectIndex: d.correctIndex,
	}, nil
}

// ValidateQuestion re-checks invariants on an already built question, for
// callers that accept questions from outside the draft path.
func ValidateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: no options", domain.ErrInvalidQuestion)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d outside options", domain.ErrInvalidQuestion, q.CorrectIndex)
	}
	return nil
}
