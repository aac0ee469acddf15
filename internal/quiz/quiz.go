// Package quiz holds the quiz aggregate, its uncommitted draft form and the
// repository contract used by the dialogue.
package quiz

import (
	"strings"

	"github.com/google/uuid"
)

// Answer is one option of a question.
type Answer struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}

// Question owns its answers in display order.
type Question struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Answers []Answer  `json:"answers"`
}

// Quiz is the aggregate root. Title is the natural key.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	Questions   []Question `json:"questions"`
}

// HasAnswers reports whether the question can be presented to a taker.
func (q Question) HasAnswers() bool {
	return len(q.Answers) > 0
}

// Answer returns the first answer whose text equals text.
func (q Question) Answer(text string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.Text == text {
			return a, true
		}
	}
	return Answer{}, false
}

// AnswerTexts lists answer texts in order.
func (q Question) AnswerTexts() []string {
	out := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		out = append(out, a.Text)
	}
	return out
}

// Question returns the first question whose text equals text.
func (q Quiz) Question(text string) (Question, bool) {
	for _, qs := range q.Questions {
		if qs.Text == text {
			return qs, true
		}
	}
	return Question{}, false
}

// QuestionTexts lists question texts in order.
func (q Quiz) QuestionTexts() []string {
	out := make([]string, 0, len(q.Questions))
	for _, qs := range q.Questions {
		out = append(out, qs.Text)
	}
	return out
}

// Answerable counts questions that have at least one answer.
func (q Quiz) Answerable() int {
	n := 0
	for _, qs := range q.Questions {
		if qs.HasAnswers() {
			n++
		}
	}
	return n
}

// NormalizeText trims surrounding whitespace from user supplied text.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
