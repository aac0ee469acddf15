// Package storagetest holds the behavioural suite every quiz.Repository must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/quiz"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) quiz.Repository

// Capitals is the fixture quiz used by the suite.
func Capitals() quiz.Quiz {
	return quiz.Draft{Title: "Capitals", Description: "Europe", Author: "alice"}.
		WithQuestion(quiz.QuestionDraft{Text: "France?"}.WithAnswer("Paris", true).WithAnswer("Lyon", false)).
		WithQuestion(quiz.QuestionDraft{Text: "Italy?"}.WithAnswer("Rome", true)).
		Build()
}

// Run executes the suite against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	seeded := func(t *testing.T) quiz.Repository {
		repo := newRepo(t)
		_, err := repo.Create(ctx, Capitals())
		require.NoError(t, err)
		return repo
	}

	t.Run("create and retrieve round trip", func(t *testing.T) {
		repo := seeded(t)
		got, found, err := repo.Retrieve(ctx, "Capitals")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Europe", got.Description)
		assert.Equal(t, "alice", got.Author)
		assert.Equal(t, []string{"France?", "Italy?"}, got.QuestionTexts())
		assert.Equal(t, []string{"Paris", "Lyon"}, got.Questions[0].AnswerTexts())
		assert.True(t, got.Questions[0].Answers[0].IsCorrect)
		assert.False(t, got.Questions[0].Answers[1].IsCorrect)
	})

	t.Run("retrieve missing", func(t *testing.T) {
		repo := newRepo(t)
		_, found, err := repo.Retrieve(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("duplicate title conflicts and leaves original intact", func(t *testing.T) {
		repo := seeded(t)
		dup := quiz.Draft{Title: "Capitals", Description: "other"}.Build()
		_, err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, quiz.ErrConflict)

		got, _, err := repo.Retrieve(ctx, "Capitals")
		require.NoError(t, err)
		assert.Equal(t, "Europe", got.Description)
	})

	t.Run("lists", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.Create(ctx, quiz.Draft{Title: "Animals"}.Build())
		require.NoError(t, err)

		titles, err := repo.ListQuizTitles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Animals", "Capitals"}, titles)

		qs, err := repo.ListQuestionTexts(ctx, "Capitals")
		require.NoError(t, err)
		assert.Equal(t, []string{"France?", "Italy?"}, qs)

		as, err := repo.ListAnswerTexts(ctx, "Capitals", "France?")
		require.NoError(t, err)
		assert.Equal(t, []string{"Paris", "Lyon"}, as)

		qs, err = repo.ListQuestionTexts(ctx, "Animals")
		require.NoError(t, err)
		assert.Empty(t, qs)
	})

	t.Run("lists under a missing parent", func(t *testing.T) {
		repo := seeded(t)

		_, err := repo.ListQuestionTexts(ctx, "Missing")
		assert.ErrorIs(t, err, quiz.ErrNotFound)
		_, err = repo.ListAnswerTexts(ctx, "Missing", "France?")
		assert.ErrorIs(t, err, quiz.ErrNotFound)
		_, err = repo.ListAnswerTexts(ctx, "Capitals", "Spain?")
		assert.ErrorIs(t, err, quiz.ErrNotFound)
	})

	t.Run("rename quiz", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.Create(ctx, quiz.Draft{Title: "Animals"}.Build())
		require.NoError(t, err)

		_, err = repo.EditTitle(ctx, "Capitals", "Animals")
		assert.ErrorIs(t, err, quiz.ErrConflict)

		key, err := repo.EditTitle(ctx, "Capitals", "Cities")
		require.NoError(t, err)
		assert.Equal(t, "Cities", key)
		_, found, err := repo.Retrieve(ctx, "Capitals")
		require.NoError(t, err)
		assert.False(t, found)
		got, found, err := repo.Retrieve(ctx, "Cities")
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, got.Questions, 2)

		_, err = repo.EditTitle(ctx, "Capitals", "X")
		assert.ErrorIs(t, err, quiz.ErrNotFound)
	})

	t.Run("edit description", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.EditDescription(ctx, "Capitals", "World")
		require.NoError(t, err)
		got, _, _ := repo.Retrieve(ctx, "Capitals")
		assert.Equal(t, "World", got.Description)
	})

	t.Run("question edits", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.EditQuestionText(ctx, "Capitals", "France?", "Italy?")
		assert.ErrorIs(t, err, quiz.ErrConflict)

		_, err = repo.EditQuestionText(ctx, "Capitals", "France?", "Francia?")
		require.NoError(t, err)

		_, err = repo.CreateQuestion(ctx, "Capitals", "Italy?")
		assert.ErrorIs(t, err, quiz.ErrConflict)
		_, err = repo.CreateQuestion(ctx, "Capitals", "Spain?")
		require.NoError(t, err)
		_, err = repo.CreateQuestion(ctx, "Missing", "Spain?")
		assert.ErrorIs(t, err, quiz.ErrNotFound)

		q, found, err := repo.RetrieveQuestion(ctx, "Capitals", "Spain?")
		require.NoError(t, err)
		require.True(t, found)
		assert.False(t, q.HasAnswers())

		texts, _ := repo.ListQuestionTexts(ctx, "Capitals")
		assert.Equal(t, []string{"Francia?", "Italy?", "Spain?"}, texts)
	})

	t.Run("answer edits", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.CreateAnswer(ctx, "Capitals", "France?", "Paris", false)
		assert.ErrorIs(t, err, quiz.ErrConflict)
		_, err = repo.CreateAnswer(ctx, "Capitals", "France?", "Marseille", false)
		require.NoError(t, err)
		_, err = repo.CreateAnswer(ctx, "Capitals", "Spain?", "Madrid", true)
		assert.ErrorIs(t, err, quiz.ErrNotFound)

		_, err = repo.EditAnswerText(ctx, "Capitals", "France?", "Lyon", "Paris")
		assert.ErrorIs(t, err, quiz.ErrConflict)
		_, err = repo.EditAnswerText(ctx, "Capitals", "France?", "Lyon", "Nice")
		require.NoError(t, err)

		_, err = repo.EditAnswerCorrectness(ctx, "Capitals", "France?", "Nice", true)
		require.NoError(t, err)
		a, found, err := repo.RetrieveAnswer(ctx, "Capitals", "France?", "Nice")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, a.IsCorrect)

		_, found, err = repo.RetrieveAnswer(ctx, "Capitals", "France?", "Lyon")
		require.NoError(t, err)
		assert.False(t, found)

		as, _ := repo.ListAnswerTexts(ctx, "Capitals", "France?")
		assert.Equal(t, []string{"Paris", "Nice", "Marseille"}, as)
	})

	t.Run("deletes cascade", func(t *testing.T) {
		repo := seeded(t)
		_, err := repo.DeleteAnswer(ctx, "Capitals", "France?", "Lyon")
		require.NoError(t, err)
		_, err = repo.DeleteAnswer(ctx, "Capitals", "France?", "Lyon")
		assert.ErrorIs(t, err, quiz.ErrNotFound)

		_, err = repo.DeleteQuestion(ctx, "Capitals", "Italy?")
		require.NoError(t, err)
		_, found, err := repo.RetrieveQuestion(ctx, "Capitals", "Italy?")
		require.NoError(t, err)
		assert.False(t, found)

		_, err = repo.DeleteQuiz(ctx, "Capitals")
		require.NoError(t, err)
		_, found, err = repo.Retrieve(ctx, "Capitals")
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = repo.RetrieveAnswer(ctx, "Capitals", "France?", "Paris")
		require.NoError(t, err)
		assert.False(t, found)

		_, err = repo.DeleteQuiz(ctx, "Capitals")
		assert.ErrorIs(t, err, quiz.ErrNotFound)
	})

	t.Run("retrieved aggregates are detached", func(t *testing.T) {
		repo := seeded(t)
		got, _, _ := repo.Retrieve(ctx, "Capitals")
		got.Questions[0].Answers[0].Text = "mutated"
		again, _, _ := repo.Retrieve(ctx, "Capitals")
		assert.Equal(t, "Paris", again.Questions[0].Answers[0].Text)
	})
}
