package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/storage/memory"
	"github.com/m3rciful/quizbot/internal/storage/storagetest"
)

func seeded(t *testing.T, quizzes ...quiz.Quiz) *memory.Repository {
	t.Helper()
	repo := memory.New()
	for _, q := range quizzes {
		_, err := repo.Create(context.Background(), q)
		require.NoError(t, err)
	}
	return repo
}

func TestEditorSelectAndNavigate(t *testing.T) {
	m := newMachine(seeded(t, storagetest.Capitals()))

	res := step(t, m, dialogue.Start{}, text(LabelEditQuiz))
	assert.Equal(t, dialogue.SelectQuiz{}, res.Next)
	assert.Equal(t, []string{"Capitals"}, sends(res.Actions)[0].Options.Labels)

	res = step(t, m, res.Next, text("Atlantis"))
	assert.Equal(t, dialogue.SelectQuiz{}, res.Next)

	res = drive(t, m, dialogue.SelectQuiz{}, "Capitals")
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)
	assert.Contains(t, bodies(res.Actions)[1], "# France?")

	res = step(t, m, res.Next, text(LabelEditQuestion))
	assert.Equal(t, dialogue.SelectQuestion{Quiz: "Capitals"}, res.Next)
	assert.Equal(t, []string{"France?", "Italy?", LabelBack}, sends(res.Actions)[0].Options.Labels)

	res = step(t, m, res.Next, text("France?"))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, res.Next)

	res = step(t, m, res.Next, text(LabelEditAnswer))
	assert.Equal(t, dialogue.SelectAnswer{Quiz: "Capitals", Question: "France?"}, res.Next)

	res = step(t, m, res.Next, text("Lyon"))
	assert.Equal(t, dialogue.HandleAnswer{Quiz: "Capitals", Question: "France?", Answer: "Lyon"}, res.Next)
	assert.Equal(t, "Lyon (X)", bodies(res.Actions)[1])

	res = step(t, m, res.Next, text(CommandBack))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, res.Next)
	assert.Equal(t, msgReturning, bodies(res.Actions)[0])
	assert.Contains(t, bodies(res.Actions)[1], "2)Lyon (X)")

	res = step(t, m, res.Next, text(LabelBack))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)

	res = step(t, m, res.Next, text(CommandBack))
	assert.Equal(t, dialogue.Start{}, res.Next)
}

func TestEditorUnrecognizedInputIsNoop(t *testing.T) {
	m := newMachine(seeded(t, storagetest.Capitals()))
	states := []dialogue.State{
		dialogue.HandleQuiz{Quiz: "Capitals"},
		dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"},
		dialogue.HandleAnswer{Quiz: "Capitals", Question: "France?", Answer: "Paris"},
		dialogue.EditCorrectness{Quiz: "Capitals", Question: "France?", Answer: "Paris"},
		dialogue.AddAnswerCorrectness{Quiz: "Capitals", Question: "France?", Answer: "Nice"},
	}
	for _, st := range states {
		res := step(t, m, st, text("whatever"))
		assert.Equal(t, st, res.Next, st.Name())
		assert.Equal(t, logger.OutcomeRejected, res.Outcome, st.Name())
	}
}

func TestEditNameCarriesNewTitle(t *testing.T) {
	repo := seeded(t, storagetest.Capitals(), quiz.Draft{Title: "Other"}.Build())
	m := newMachine(repo)

	res := step(t, m, dialogue.HandleQuiz{Quiz: "Capitals"}, text(LabelEditName))
	assert.Equal(t, dialogue.EditName{Quiz: "Capitals"}, res.Next)

	res = step(t, m, res.Next, text("Other"))
	assert.Equal(t, dialogue.EditName{Quiz: "Capitals"}, res.Next)

	res = step(t, m, res.Next, text("European capitals"))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "European capitals"}, res.Next)

	_, found, err := repo.Retrieve(context.Background(), "European capitals")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestEditDescription(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := drive(t, m, dialogue.HandleQuiz{Quiz: "Capitals"}, LabelEditDescription, "Capitals of Europe")
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)
	q, _, err := repo.Retrieve(context.Background(), "Capitals")
	require.NoError(t, err)
	assert.Equal(t, "Capitals of Europe", q.Description)
}

func TestAddQuestionAndAnswer(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := drive(t, m, dialogue.HandleQuiz{Quiz: "Capitals"}, LabelAddQuestion, "France?")
	assert.Equal(t, dialogue.AddQuestion{Quiz: "Capitals"}, res.Next)

	res = step(t, m, res.Next, text("Spain?"))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)

	res = drive(t, m, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Spain?"}, LabelAddAnswer, "Madrid")
	assert.Equal(t, dialogue.AddAnswerCorrectness{Quiz: "Capitals", Question: "Spain?", Answer: "Madrid"}, res.Next)
	res = step(t, m, res.Next, text(TokenYesDecorated))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Spain?"}, res.Next)

	res = drive(t, m, res.Next, LabelAddAnswer, "Barcelona", TokenNo)
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Spain?"}, res.Next)
	assert.Contains(t, bodies(res.Actions)[0], "It is incorrect.")

	q, found, err := repo.RetrieveQuestion(context.Background(), "Capitals", "Spain?")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []quiz.Answer{
		{ID: q.Answers[0].ID, Text: "Madrid", IsCorrect: true},
		{ID: q.Answers[1].ID, Text: "Barcelona", IsCorrect: false},
	}, q.Answers)

	res = drive(t, m, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Spain?"}, LabelAddAnswer, "Madrid")
	assert.Equal(t, dialogue.AddAnswer{Quiz: "Capitals", Question: "Spain?"}, res.Next)
}

func TestEditQuestionTextCarriesNewText(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := drive(t, m, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, LabelEditText, "Italy?")
	assert.Equal(t, dialogue.EditQuestionText{Quiz: "Capitals", Question: "France?"}, res.Next)

	res = step(t, m, res.Next, text("Capital of France?"))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Capital of France?"}, res.Next)
}

func TestEditAnswerTextCarriesNewText(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := drive(t, m, dialogue.HandleAnswer{Quiz: "Capitals", Question: "France?", Answer: "Lyon"}, LabelEditText, "Paris")
	assert.Equal(t, dialogue.EditAnswerText{Quiz: "Capitals", Question: "France?", Answer: "Lyon"}, res.Next)

	res = step(t, m, res.Next, text("Marseille"))
	assert.Equal(t, dialogue.HandleAnswer{Quiz: "Capitals", Question: "France?", Answer: "Marseille"}, res.Next)
}

func TestEditCorrectnessIsScopedByPath(t *testing.T) {
	other := quiz.Draft{Title: "U"}.
		WithQuestion(quiz.QuestionDraft{Text: "Q2"}.WithAnswer("A", false)).
		Build()
	target := quiz.Draft{Title: "T"}.
		WithQuestion(quiz.QuestionDraft{Text: "Q1"}.WithAnswer("A", false)).
		WithQuestion(quiz.QuestionDraft{Text: "Q2"}.WithAnswer("A", false)).
		Build()
	repo := seeded(t, target, other)
	m := newMachine(repo)

	res := drive(t, m, dialogue.HandleAnswer{Quiz: "T", Question: "Q2", Answer: "A"}, LabelEditCorrectness, TokenYes)
	assert.Equal(t, dialogue.HandleAnswer{Quiz: "T", Question: "Q2", Answer: "A"}, res.Next)

	ctx := context.Background()
	a, _, err := repo.RetrieveAnswer(ctx, "T", "Q2", "A")
	require.NoError(t, err)
	assert.True(t, a.IsCorrect)
	a, _, err = repo.RetrieveAnswer(ctx, "T", "Q1", "A")
	require.NoError(t, err)
	assert.False(t, a.IsCorrect)
	a, _, err = repo.RetrieveAnswer(ctx, "U", "Q2", "A")
	require.NoError(t, err)
	assert.False(t, a.IsCorrect)
}

func TestDeleteQuestionCascades(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := step(t, m, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, text(LabelDeleteQuestion))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)

	_, found, err := repo.RetrieveAnswer(context.Background(), "Capitals", "France?", "Paris")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAnswerAndQuiz(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := step(t, m, dialogue.HandleAnswer{Quiz: "Capitals", Question: "France?", Answer: "Lyon"}, text(LabelDeleteAnswer))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, res.Next)

	res = step(t, m, dialogue.HandleQuiz{Quiz: "Capitals"}, text(LabelDeleteQuiz))
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, "Quiz 'Capitals' deleted.", bodies(res.Actions)[0])

	titles, err := repo.ListQuizTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestVanishedKeysReturnToParent(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := step(t, m, dialogue.EditAnswerText{Quiz: "Capitals", Question: "France?", Answer: "Nice"}, text("Nizza"))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Capitals", Question: "France?"}, res.Next)

	res = step(t, m, dialogue.EditQuestionText{Quiz: "Capitals", Question: "Spain?"}, text("Portugal?"))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)

	res = step(t, m, dialogue.EditName{Quiz: "Gone"}, text("New"))
	assert.Equal(t, dialogue.Start{}, res.Next)

	res = step(t, m, dialogue.HandleQuestion{Quiz: "Gone", Question: "Q"}, text(LabelBack))
	assert.Equal(t, dialogue.Start{}, res.Next)
}

func TestEmptyListsStayPut(t *testing.T) {
	repo := seeded(t, quiz.Draft{Title: "Bare"}.WithQuestion(quiz.QuestionDraft{Text: "Q"}).Build(), quiz.Draft{Title: "Void"}.Build())
	m := newMachine(repo)

	res := step(t, m, dialogue.HandleQuiz{Quiz: "Void"}, text(LabelEditQuestion))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Void"}, res.Next)

	res = step(t, m, dialogue.HandleQuestion{Quiz: "Bare", Question: "Q"}, text(LabelEditAnswer))
	assert.Equal(t, dialogue.HandleQuestion{Quiz: "Bare", Question: "Q"}, res.Next)
}

func TestListingUnderVanishedParent(t *testing.T) {
	repo := seeded(t, storagetest.Capitals())
	m := newMachine(repo)

	res := step(t, m, dialogue.HandleQuiz{Quiz: "Gone"}, text(LabelEditQuestion))
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, []string{"Quiz 'Gone' not found."}, bodies(res.Actions))

	res = step(t, m, dialogue.HandleQuestion{Quiz: "Capitals", Question: "Spain?"}, text(LabelEditAnswer))
	assert.Equal(t, dialogue.HandleQuiz{Quiz: "Capitals"}, res.Next)
	assert.Equal(t, []string{"Question 'Spain?' not found."}, bodies(res.Actions))
}
