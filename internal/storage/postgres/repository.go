// Package postgres implements quiz.Repository on PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/quiz"
)

const uniqueViolation = "23505"

// Repository stores quizzes in the tables created by migrations/000001.
type Repository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*Repository)(nil)

// New wraps an open database handle.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type quizRow struct {
	ID          uuid.UUID `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Author      string    `db:"author"`
}

type questionRow struct {
	ID     uuid.UUID `db:"id"`
	QuizID uuid.UUID `db:"quiz_id"`
	Text   string    `db:"text"`
}

type answerRow struct {
	ID         uuid.UUID `db:"id"`
	QuestionID uuid.UUID `db:"question_id"`
	Text       string    `db:"text"`
	IsCorrect  bool      `db:"is_correct"`
}

const (
	selectQuizByTitle = `SELECT id, title, description, author FROM quizzes WHERE title = $1`
	selectQuizID      = `SELECT id FROM quizzes WHERE title = $1`
	selectQuestionRef = `SELECT qs.id, qs.quiz_id, qs.text
FROM questions qs JOIN quizzes qz ON qz.id = qs.quiz_id
WHERE qz.title = $1 AND qs.text = $2
ORDER BY qs.position LIMIT 1`
	selectAnswerRef = `SELECT id, question_id, text, is_correct FROM answers
WHERE question_id = $1 AND text = $2
ORDER BY position LIMIT 1`
	selectQuestionsOfQuiz = `SELECT id, quiz_id, text FROM questions WHERE quiz_id = $1 ORDER BY position`
	selectAnswersOfQuiz   = `SELECT a.id, a.question_id, a.text, a.is_correct
FROM answers a JOIN questions qs ON qs.id = a.question_id
WHERE qs.quiz_id = $1
ORDER BY qs.position, a.position`
	selectAnswersOfQuestion = `SELECT id, question_id, text, is_correct FROM answers WHERE question_id = $1 ORDER BY position`

	insertQuiz     = `INSERT INTO quizzes (id, title, description, author) VALUES ($1, $2, $3, $4)`
	insertQuestion = `INSERT INTO questions (id, quiz_id, text, position) VALUES ($1, $2, $3, $4)`
	insertAnswer   = `INSERT INTO answers (id, question_id, text, is_correct, position) VALUES ($1, $2, $3, $4, $5)`

	nextQuestionPosition = `SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE quiz_id = $1`
	nextAnswerPosition   = `SELECT COALESCE(MAX(position) + 1, 0) FROM answers WHERE question_id = $1`

	questionTextTaken = `SELECT EXISTS (SELECT 1 FROM questions WHERE quiz_id = $1 AND text = $2 AND id <> $3)`
	answerTextTaken   = `SELECT EXISTS (SELECT 1 FROM answers WHERE question_id = $1 AND text = $2 AND id <> $3)`

	listQuizTitles    = `SELECT title FROM quizzes ORDER BY title`
	listQuestionTexts = `SELECT text FROM questions WHERE quiz_id = $1 ORDER BY position`

	updateQuizTitle       = `UPDATE quizzes SET title = $1 WHERE id = $2`
	updateQuizDescription = `UPDATE quizzes SET description = $1 WHERE id = $2`
	updateQuestionText    = `UPDATE questions SET text = $1 WHERE id = $2`
	updateAnswerText      = `UPDATE answers SET text = $1 WHERE id = $2`
	updateAnswerCorrect   = `UPDATE answers SET is_correct = $1 WHERE id = $2`

	deleteQuiz     = `DELETE FROM quizzes WHERE id = $1`
	deleteQuestion = `DELETE FROM questions WHERE id = $1`
	deleteAnswer   = `DELETE FROM answers WHERE id = $1`
)

// Create inserts the quiz and every child row in one transaction.
func (r *Repository) Create(ctx context.Context, q quiz.Quiz) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, insertQuiz, q.ID, q.Title, q.Description, q.Author); err != nil {
			return err
		}
		for qi, qs := range q.Questions {
			if _, err := tx.ExecContext(ctx, insertQuestion, qs.ID, q.ID, qs.Text, qi); err != nil {
				return err
			}
			for ai, a := range qs.Answers {
				if _, err := tx.ExecContext(ctx, insertAnswer, a.ID, qs.ID, a.Text, a.IsCorrect, ai); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", r.fail(ctx, "create", err)
	}
	return q.Title, nil
}

// Retrieve loads the aggregate inside a read-only repeatable-read transaction
// so the quiz row and its children come from one snapshot.
func (r *Repository) Retrieve(ctx context.Context, title string) (quiz.Quiz, bool, error) {
	var out quiz.Quiz
	err := r.inTx(ctx, snapshot, func(tx *sqlx.Tx) error {
		var row quizRow
		if err := tx.GetContext(ctx, &row, selectQuizByTitle, title); err != nil {
			return err
		}
		var questions []questionRow
		if err := tx.SelectContext(ctx, &questions, selectQuestionsOfQuiz, row.ID); err != nil {
			return err
		}
		var answers []answerRow
		if err := tx.SelectContext(ctx, &answers, selectAnswersOfQuiz, row.ID); err != nil {
			return err
		}
		out = assemble(row, questions, answers)
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Quiz{}, false, nil
	}
	if err != nil {
		return quiz.Quiz{}, false, r.fail(ctx, "retrieve", err)
	}
	return out, true, nil
}

// RetrieveQuestion loads one question with its answers.
func (r *Repository) RetrieveQuestion(ctx context.Context, quizTitle, questionText string) (quiz.Question, bool, error) {
	var out quiz.Question
	err := r.inTx(ctx, snapshot, func(tx *sqlx.Tx) error {
		ref, err := questionRef(ctx, tx, quizTitle, questionText)
		if err != nil {
			return err
		}
		var answers []answerRow
		if err := tx.SelectContext(ctx, &answers, selectAnswersOfQuestion, ref.ID); err != nil {
			return err
		}
		out = quiz.Question{ID: ref.ID, Text: ref.Text, Answers: toAnswers(answers)}
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Question{}, false, nil
	}
	if err != nil {
		return quiz.Question{}, false, r.fail(ctx, "retrieve_question", err)
	}
	return out, true, nil
}

// RetrieveAnswer loads one answer.
func (r *Repository) RetrieveAnswer(ctx context.Context, quizTitle, questionText, answerText string) (quiz.Answer, bool, error) {
	var out quiz.Answer
	err := r.inTx(ctx, snapshot, func(tx *sqlx.Tx) error {
		ref, err := answerRef(ctx, tx, quizTitle, questionText, answerText)
		if err != nil {
			return err
		}
		out = quiz.Answer{ID: ref.ID, Text: ref.Text, IsCorrect: ref.IsCorrect}
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Answer{}, false, nil
	}
	if err != nil {
		return quiz.Answer{}, false, r.fail(ctx, "retrieve_answer", err)
	}
	return out, true, nil
}

// ListQuizTitles returns every stored title in lexical order.
func (r *Repository) ListQuizTitles(ctx context.Context) ([]string, error) {
	var titles []string
	if err := r.db.SelectContext(ctx, &titles, listQuizTitles); err != nil {
		return nil, r.fail(ctx, "list_quizzes", err)
	}
	return titles, nil
}

// ListQuestionTexts returns question texts in display order. An unknown quiz
// is quiz.ErrNotFound.
func (r *Repository) ListQuestionTexts(ctx context.Context, quizTitle string) ([]string, error) {
	var texts []string
	err := r.inTx(ctx, snapshot, func(tx *sqlx.Tx) error {
		id, err := quizID(ctx, tx, quizTitle)
		if err != nil {
			return err
		}
		return tx.SelectContext(ctx, &texts, listQuestionTexts, id)
	})
	if err != nil {
		return nil, r.fail(ctx, "list_questions", err)
	}
	return texts, nil
}

// ListAnswerTexts returns answer texts of the first matching question.
func (r *Repository) ListAnswerTexts(ctx context.Context, quizTitle, questionText string) ([]string, error) {
	q, found, err := r.RetrieveQuestion(ctx, quizTitle, questionText)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("list_answers: %w", quiz.ErrNotFound)
	}
	return q.AnswerTexts(), nil
}

// EditTitle renames a quiz; a taken title maps to quiz.ErrConflict via the unique index.
func (r *Repository) EditTitle(ctx context.Context, title, newTitle string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		id, err := quizID(ctx, tx, title)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, updateQuizTitle, newTitle, id)
	})
	if err != nil {
		return "", r.fail(ctx, "edit_title", err)
	}
	return newTitle, nil
}

// EditDescription replaces the quiz description.
func (r *Repository) EditDescription(ctx context.Context, title, description string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		id, err := quizID(ctx, tx, title)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, updateQuizDescription, description, id)
	})
	if err != nil {
		return "", r.fail(ctx, "edit_description", err)
	}
	return title, nil
}

// EditQuestionText renames a question unless a sibling already uses newText.
func (r *Repository) EditQuestionText(ctx context.Context, quizTitle, questionText, newText string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := questionRef(ctx, tx, quizTitle, questionText)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, questionTextTaken, ref.QuizID, newText, ref.ID); err != nil {
			return err
		}
		return execOne(ctx, tx, updateQuestionText, newText, ref.ID)
	})
	if err != nil {
		return "", r.fail(ctx, "edit_question", err)
	}
	return newText, nil
}

// EditAnswerText renames an answer unless a sibling already uses newText.
func (r *Repository) EditAnswerText(ctx context.Context, quizTitle, questionText, answerText, newText string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := answerRef(ctx, tx, quizTitle, questionText, answerText)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, answerTextTaken, ref.QuestionID, newText, ref.ID); err != nil {
			return err
		}
		return execOne(ctx, tx, updateAnswerText, newText, ref.ID)
	})
	if err != nil {
		return "", r.fail(ctx, "edit_answer", err)
	}
	return newText, nil
}

// EditAnswerCorrectness flips or sets the correctness flag.
func (r *Repository) EditAnswerCorrectness(ctx context.Context, quizTitle, questionText, answerText string, correct bool) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := answerRef(ctx, tx, quizTitle, questionText, answerText)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, updateAnswerCorrect, correct, ref.ID)
	})
	if err != nil {
		return "", r.fail(ctx, "edit_correctness", err)
	}
	return answerText, nil
}

// CreateQuestion appends an empty question to the quiz.
func (r *Repository) CreateQuestion(ctx context.Context, quizTitle, text string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		id, err := quizID(ctx, tx, quizTitle)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, questionTextTaken, id, text, uuid.Nil); err != nil {
			return err
		}
		var pos int
		if err := tx.GetContext(ctx, &pos, nextQuestionPosition, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, insertQuestion, uuid.New(), id, text, pos)
		return err
	})
	if err != nil {
		return "", r.fail(ctx, "create_question", err)
	}
	return text, nil
}

// CreateAnswer appends an answer to the question.
func (r *Repository) CreateAnswer(ctx context.Context, quizTitle, questionText, text string, correct bool) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := questionRef(ctx, tx, quizTitle, questionText)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, answerTextTaken, ref.ID, text, uuid.Nil); err != nil {
			return err
		}
		var pos int
		if err := tx.GetContext(ctx, &pos, nextAnswerPosition, ref.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, insertAnswer, uuid.New(), ref.ID, text, correct, pos)
		return err
	})
	if err != nil {
		return "", r.fail(ctx, "create_answer", err)
	}
	return text, nil
}

// DeleteQuiz removes the quiz; questions and answers follow via ON DELETE CASCADE.
func (r *Repository) DeleteQuiz(ctx context.Context, title string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		id, err := quizID(ctx, tx, title)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, deleteQuiz, id)
	})
	if err != nil {
		return "", r.fail(ctx, "delete_quiz", err)
	}
	return title, nil
}

// DeleteQuestion removes the question and its answers.
func (r *Repository) DeleteQuestion(ctx context.Context, quizTitle, questionText string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := questionRef(ctx, tx, quizTitle, questionText)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, deleteQuestion, ref.ID)
	})
	if err != nil {
		return "", r.fail(ctx, "delete_question", err)
	}
	return questionText, nil
}

// DeleteAnswer removes one answer.
func (r *Repository) DeleteAnswer(ctx context.Context, quizTitle, questionText, answerText string) (string, error) {
	err := r.inTx(ctx, nil, func(tx *sqlx.Tx) error {
		ref, err := answerRef(ctx, tx, quizTitle, questionText, answerText)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, deleteAnswer, ref.ID)
	})
	if err != nil {
		return "", r.fail(ctx, "delete_answer", err)
	}
	return answerText, nil
}

var snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (r *Repository) inTx(ctx context.Context, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// fail maps driver errors onto the quiz sentinels and logs anything unexpected.
func (r *Repository) fail(ctx context.Context, op string, err error) error {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, quiz.ErrNotFound):
		return fmt.Errorf("%s: %w", op, quiz.ErrNotFound)
	case errors.Is(err, quiz.ErrConflict):
		return fmt.Errorf("%s: %w", op, quiz.ErrConflict)
	case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", op, quiz.ErrConflict)
	}
	logger.Error(ctx, logger.CompRepo, "repo.fail",
		slog.String("op", op),
		slog.String("backend", "postgres"),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("postgres %s: %w", op, err)
}

func quizID(ctx context.Context, tx *sqlx.Tx, title string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.GetContext(ctx, &id, selectQuizID, title)
	return id, err
}

func questionRef(ctx context.Context, tx *sqlx.Tx, quizTitle, text string) (questionRow, error) {
	var row questionRow
	err := tx.GetContext(ctx, &row, selectQuestionRef, quizTitle, text)
	return row, err
}

func answerRef(ctx context.Context, tx *sqlx.Tx, quizTitle, questionText, text string) (answerRow, error) {
	q, err := questionRef(ctx, tx, quizTitle, questionText)
	if err != nil {
		return answerRow{}, err
	}
	var row answerRow
	err = tx.GetContext(ctx, &row, selectAnswerRef, q.ID, text)
	return row, err
}

func ensureFree(ctx context.Context, tx *sqlx.Tx, query string, parent uuid.UUID, text string, self uuid.UUID) error {
	var taken bool
	if err := tx.GetContext(ctx, &taken, query, parent, text, self); err != nil {
		return err
	}
	if taken {
		return quiz.ErrConflict
	}
	return nil
}

func execOne(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func assemble(row quizRow, questions []questionRow, answers []answerRow) quiz.Quiz {
	byQuestion := make(map[uuid.UUID][]answerRow, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	out := quiz.Quiz{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Author:      row.Author,
		Questions:   make([]quiz.Question, 0, len(questions)),
	}
	for _, q := range questions {
		out.Questions = append(out.Questions, quiz.Question{
			ID:      q.ID,
			Text:    q.Text,
			Answers: toAnswers(byQuestion[q.ID]),
		})
	}
	return out
}

func toAnswers(rows []answerRow) []quiz.Answer {
	out := make([]quiz.Answer, 0, len(rows))
	for _, a := range rows {
		out = append(out, quiz.Answer{ID: a.ID, Text: a.Text, IsCorrect: a.IsCorrect})
	}
	return out
}
