// Package memory implements quiz.Repository in process memory.
// It backs local runs without PostgreSQL and the dialogue tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/m3rciful/quizbot/internal/quiz"
)

// Repository keeps quizzes keyed by title. All reads return deep copies.
type Repository struct {
	mu      sync.RWMutex
	quizzes map[string]*quiz.Quiz
}

var _ quiz.Repository = (*Repository)(nil)

// New returns an empty repository.
func New() *Repository {
	return &Repository{quizzes: make(map[string]*quiz.Quiz)}
}

// Create stores a copy of q.
func (r *Repository) Create(_ context.Context, q quiz.Quiz) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[q.Title]; ok {
		return "", quiz.ErrConflict
	}
	c := clone(q)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.quizzes[q.Title] = &c
	return q.Title, nil
}

// Retrieve returns a copy of the stored aggregate.
func (r *Repository) Retrieve(_ context.Context, title string) (quiz.Quiz, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quizzes[title]
	if !ok {
		return quiz.Quiz{}, false, nil
	}
	return clone(*q), true, nil
}

// RetrieveQuestion returns a copy of the first matching question.
func (r *Repository) RetrieveQuestion(_ context.Context, quizTitle, questionText string) (quiz.Question, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return quiz.Question{}, false, nil
	}
	return cloneQuestion(*qs), true, nil
}

// RetrieveAnswer returns the first matching answer.
func (r *Repository) RetrieveAnswer(_ context.Context, quizTitle, questionText, answerText string) (quiz.Answer, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.answer(quizTitle, questionText, answerText)
	if !ok {
		return quiz.Answer{}, false, nil
	}
	return *a, true, nil
}

// ListQuizTitles returns titles in lexical order.
func (r *Repository) ListQuizTitles(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	titles := make([]string, 0, len(r.quizzes))
	for t := range r.quizzes {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles, nil
}

// ListQuestionTexts returns question texts in display order.
func (r *Repository) ListQuestionTexts(_ context.Context, quizTitle string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quizzes[quizTitle]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return q.QuestionTexts(), nil
}

// ListAnswerTexts returns answer texts in display order.
func (r *Repository) ListAnswerTexts(_ context.Context, quizTitle, questionText string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return qs.AnswerTexts(), nil
}

// EditTitle re-keys the quiz.
func (r *Repository) EditTitle(_ context.Context, title, newTitle string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[title]
	if !ok {
		return "", quiz.ErrNotFound
	}
	if newTitle == title {
		return title, nil
	}
	if _, taken := r.quizzes[newTitle]; taken {
		return "", quiz.ErrConflict
	}
	delete(r.quizzes, title)
	q.Title = newTitle
	r.quizzes[newTitle] = q
	return newTitle, nil
}

// EditDescription replaces the description.
func (r *Repository) EditDescription(_ context.Context, title, description string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[title]
	if !ok {
		return "", quiz.ErrNotFound
	}
	q.Description = description
	return title, nil
}

// EditQuestionText renames a question unless a sibling uses newText.
func (r *Repository) EditQuestionText(_ context.Context, quizTitle, questionText, newText string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[quizTitle]
	if !ok {
		return "", quiz.ErrNotFound
	}
	idx := indexQuestion(q.Questions, questionText)
	if idx < 0 {
		return "", quiz.ErrNotFound
	}
	for i, qs := range q.Questions {
		if i != idx && qs.Text == newText {
			return "", quiz.ErrConflict
		}
	}
	q.Questions[idx].Text = newText
	return newText, nil
}

// EditAnswerText renames an answer unless a sibling uses newText.
func (r *Repository) EditAnswerText(_ context.Context, quizTitle, questionText, answerText, newText string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return "", quiz.ErrNotFound
	}
	idx := indexAnswer(qs.Answers, answerText)
	if idx < 0 {
		return "", quiz.ErrNotFound
	}
	for i, a := range qs.Answers {
		if i != idx && a.Text == newText {
			return "", quiz.ErrConflict
		}
	}
	qs.Answers[idx].Text = newText
	return newText, nil
}

// EditAnswerCorrectness sets the correctness flag.
func (r *Repository) EditAnswerCorrectness(_ context.Context, quizTitle, questionText, answerText string, correct bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answer(quizTitle, questionText, answerText)
	if !ok {
		return "", quiz.ErrNotFound
	}
	a.IsCorrect = correct
	return answerText, nil
}

// CreateQuestion appends an empty question.
func (r *Repository) CreateQuestion(_ context.Context, quizTitle, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[quizTitle]
	if !ok {
		return "", quiz.ErrNotFound
	}
	if indexQuestion(q.Questions, text) >= 0 {
		return "", quiz.ErrConflict
	}
	q.Questions = append(q.Questions, quiz.Question{ID: uuid.New(), Text: text})
	return text, nil
}

// CreateAnswer appends an answer to the first matching question.
func (r *Repository) CreateAnswer(_ context.Context, quizTitle, questionText, text string, correct bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return "", quiz.ErrNotFound
	}
	if indexAnswer(qs.Answers, text) >= 0 {
		return "", quiz.ErrConflict
	}
	qs.Answers = append(qs.Answers, quiz.Answer{ID: uuid.New(), Text: text, IsCorrect: correct})
	return text, nil
}

// DeleteQuiz drops the quiz together with its children.
func (r *Repository) DeleteQuiz(_ context.Context, title string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[title]; !ok {
		return "", quiz.ErrNotFound
	}
	delete(r.quizzes, title)
	return title, nil
}

// DeleteQuestion drops the first matching question and its answers.
func (r *Repository) DeleteQuestion(_ context.Context, quizTitle, questionText string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[quizTitle]
	if !ok {
		return "", quiz.ErrNotFound
	}
	idx := indexQuestion(q.Questions, questionText)
	if idx < 0 {
		return "", quiz.ErrNotFound
	}
	q.Questions = append(q.Questions[:idx:idx], q.Questions[idx+1:]...)
	return questionText, nil
}

// DeleteAnswer drops the first matching answer.
func (r *Repository) DeleteAnswer(_ context.Context, quizTitle, questionText, answerText string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return "", quiz.ErrNotFound
	}
	idx := indexAnswer(qs.Answers, answerText)
	if idx < 0 {
		return "", quiz.ErrNotFound
	}
	qs.Answers = append(qs.Answers[:idx:idx], qs.Answers[idx+1:]...)
	return answerText, nil
}

func (r *Repository) question(quizTitle, text string) (*quiz.Question, bool) {
	q, ok := r.quizzes[quizTitle]
	if !ok {
		return nil, false
	}
	idx := indexQuestion(q.Questions, text)
	if idx < 0 {
		return nil, false
	}
	return &q.Questions[idx], true
}

func (r *Repository) answer(quizTitle, questionText, text string) (*quiz.Answer, bool) {
	qs, ok := r.question(quizTitle, questionText)
	if !ok {
		return nil, false
	}
	idx := indexAnswer(qs.Answers, text)
	if idx < 0 {
		return nil, false
	}
	return &qs.Answers[idx], true
}

func indexQuestion(qs []quiz.Question, text string) int {
	for i, q := range qs {
		if q.Text == text {
			return i
		}
	}
	return -1
}

func indexAnswer(as []quiz.Answer, text string) int {
	for i, a := range as {
		if a.Text == text {
			return i
		}
	}
	return -1
}

func clone(q quiz.Quiz) quiz.Quiz {
	out := q
	out.Questions = make([]quiz.Question, len(q.Questions))
	for i, qs := range q.Questions {
		out.Questions[i] = cloneQuestion(qs)
	}
	return out
}

func cloneQuestion(q quiz.Question) quiz.Question {
	q.Answers = append([]quiz.Answer(nil), q.Answers...)
	return q
}
