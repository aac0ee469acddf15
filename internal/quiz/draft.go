package quiz

import "github.com/google/uuid"

// Draft is a quiz under construction. It is never persisted until committed
// with Repository.Create. Draft values are immutable: every With* method
// returns a copy and leaves the receiver untouched.
type Draft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	Questions   []QuestionDraft `json:"questions,omitempty"`
}

// QuestionDraft is a question being collected inside a Draft.
type QuestionDraft struct {
	Text    string        `json:"text"`
	Answers []AnswerDraft `json:"answers,omitempty"`
}

// AnswerDraft is an answer being collected inside a QuestionDraft.
type AnswerDraft struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// WithTitle returns a copy of d carrying title.
func (d Draft) WithTitle(title string) Draft {
	d.Questions = cloneQuestions(d.Questions)
	d.Title = title
	return d
}

// WithQuestion returns a copy of d with q appended.
func (d Draft) WithQuestion(q QuestionDraft) Draft {
	qs := make([]QuestionDraft, 0, len(d.Questions)+1)
	qs = append(qs, cloneQuestions(d.Questions)...)
	qs = append(qs, q.clone())
	d.Questions = qs
	return d
}

// HasQuestion reports whether a question with text is already collected.
func (d Draft) HasQuestion(text string) bool {
	for _, q := range d.Questions {
		if q.Text == text {
			return true
		}
	}
	return false
}

// WithAnswer returns a copy of q with a new answer appended.
func (q QuestionDraft) WithAnswer(text string, correct bool) QuestionDraft {
	as := make([]AnswerDraft, 0, len(q.Answers)+1)
	as = append(as, q.Answers...)
	as = append(as, AnswerDraft{Text: text, IsCorrect: correct})
	q.Answers = as
	return q
}

// HasAnswer reports whether an answer with text is already collected.
func (q QuestionDraft) HasAnswer(text string) bool {
	for _, a := range q.Answers {
		if a.Text == text {
			return true
		}
	}
	return false
}

// Build turns the draft into an aggregate with fresh identifiers.
func (d Draft) Build() Quiz {
	out := Quiz{
		ID:          uuid.New(),
		Title:       d.Title,
		Description: d.Description,
		Author:      d.Author,
		Questions:   make([]Question, 0, len(d.Questions)),
	}
	for _, qd := range d.Questions {
		q := Question{ID: uuid.New(), Text: qd.Text, Answers: make([]Answer, 0, len(qd.Answers))}
		for _, ad := range qd.Answers {
			q.Answers = append(q.Answers, Answer{ID: uuid.New(), Text: ad.Text, IsCorrect: ad.IsCorrect})
		}
		out.Questions = append(out.Questions, q)
	}
	return out
}

func (q QuestionDraft) clone() QuestionDraft {
	if q.Answers != nil {
		q.Answers = append([]AnswerDraft(nil), q.Answers...)
	}
	return q
}

func cloneQuestions(in []QuestionDraft) []QuestionDraft {
	if in == nil {
		return nil
	}
	out := make([]QuestionDraft, len(in))
	for i, q := range in {
		out[i] = q.clone()
	}
	return out
}
