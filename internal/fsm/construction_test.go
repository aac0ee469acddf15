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
)

// drive feeds texts one after another and returns the final result.
func drive(t *testing.T, m *Machine, st dialogue.State, inputs ...string) Result {
	t.Helper()
	res := Result{Next: st}
	for _, in := range inputs {
		res = step(t, m, res.Next, text(in))
	}
	return res
}

func TestConstructionCommitsInInputOrder(t *testing.T) {
	repo := memory.New()
	var created []string
	m := New(repo, Options{
		IsAdmin:       admins,
		OnQuizCreated: func(_ context.Context, title string) { created = append(created, title) },
	})

	res := drive(t, m, dialogue.Start{},
		LabelCreateQuiz,
		"Capitals",
		"Europe",
		TokenYes,
		"France?",
		"Paris", TokenYesDecorated,
		TokenYes,
		"Lyon", TokenNo,
		TokenNoDecorated,
		TokenYesDecorated,
		"Italy?",
		"Rome", TokenYes,
		TokenNo,
		TokenNo,
	)
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, logger.OutcomeOK, res.Outcome)
	assert.Equal(t, []string{"Capitals"}, created)
	assert.Contains(t, bodies(res.Actions)[0], "Saving quiz Capitals")

	q, found, err := repo.Retrieve(context.Background(), "Capitals")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Europe", q.Description)
	assert.Equal(t, adminName, q.Author)
	assert.Equal(t, []string{"France?", "Italy?"}, q.QuestionTexts())
	assert.Equal(t, []string{"Paris", "Lyon"}, q.Questions[0].AnswerTexts())
	assert.True(t, q.Questions[0].Answers[0].IsCorrect)
	assert.False(t, q.Questions[0].Answers[1].IsCorrect)
	assert.Equal(t, []string{"Rome"}, q.Questions[1].AnswerTexts())
}

func TestConstructionWithoutQuestions(t *testing.T) {
	repo := memory.New()
	m := newMachine(repo)

	res := drive(t, m, dialogue.AwaitingTitle{}, "Empty", "Nothing yet", TokenNo)
	assert.Equal(t, dialogue.Start{}, res.Next)

	q, found, err := repo.Retrieve(context.Background(), "Empty")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, q.Questions)
}

func TestConstructionLeavesStorageUntouchedUntilCommit(t *testing.T) {
	repo := memory.New()
	m := newMachine(repo)

	res := drive(t, m, dialogue.AwaitingTitle{}, "T", "D", TokenYes, "Q", "A", TokenYes)
	assert.IsType(t, dialogue.AwaitingAddAnotherAnswer{}, res.Next)

	titles, err := repo.ListQuizTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)

	res = step(t, m, res.Next, cmd(CommandCancel))
	assert.Equal(t, dialogue.Start{}, res.Next)
	titles, err = repo.ListQuizTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestDuplicateTitleNeverAdvances(t *testing.T) {
	repo := memory.New()
	_, err := repo.Create(context.Background(), quiz.Draft{Title: "Taken"}.Build())
	require.NoError(t, err)
	m := newMachine(repo)

	for _, in := range []string{"Taken", "  Taken  ", ""} {
		res := step(t, m, dialogue.AwaitingTitle{}, text(in))
		assert.Equal(t, dialogue.AwaitingTitle{}, res.Next, in)
		assert.Equal(t, logger.OutcomeRejected, res.Outcome, in)
	}

	res := step(t, m, dialogue.AwaitingTitle{}, text("Fresh"))
	assert.Equal(t, dialogue.AwaitingDescription{Title: "Fresh"}, res.Next)
}

func TestYesNoTokens(t *testing.T) {
	draft := quiz.Draft{Title: "T", Description: "D", Author: adminName}
	st := dialogue.AwaitingAddFirstQuestion{Draft: draft}
	m := newMachine(memory.New())

	for _, in := range []string{TokenYes, TokenYesDecorated} {
		res := step(t, m, st, text(in))
		assert.Equal(t, dialogue.AwaitingQuestionText{Draft: draft}, res.Next, in)
	}
	for _, in := range []string{"yes", "YES", "Yes ", "Y", "No✔️", "Yes❌", "Nope", "✔️", ""} {
		res := step(t, m, st, text(in))
		assert.Equal(t, st, res.Next, in)
		assert.Equal(t, logger.OutcomeRejected, res.Outcome, in)
		assert.Equal(t, []string{msgYesNo}, bodies(res.Actions), in)
	}

	answers := dialogue.AwaitingAnswerCorrectness{Draft: draft, Question: quiz.QuestionDraft{Text: "Q"}, Pending: "A"}
	res := step(t, m, answers, text(TokenNoDecorated))
	next, ok := res.Next.(dialogue.AwaitingAddAnotherAnswer)
	require.True(t, ok)
	assert.Equal(t, []quiz.AnswerDraft{{Text: "A", IsCorrect: false}}, next.Question.Answers)

	res = step(t, m, answers, text("maybe"))
	assert.Equal(t, answers, res.Next)
}

func TestDuplicateQuestionAndAnswerRejected(t *testing.T) {
	draft := quiz.Draft{Title: "T"}.WithQuestion(quiz.QuestionDraft{Text: "Q"}.WithAnswer("A", true))
	m := newMachine(memory.New())

	qs := dialogue.AwaitingQuestionText{Draft: draft}
	res := step(t, m, qs, text("Q"))
	assert.Equal(t, qs, res.Next)

	as := dialogue.AwaitingAnswerText{Draft: draft, Question: quiz.QuestionDraft{Text: "Q2"}.WithAnswer("A", false)}
	res = step(t, m, as, text("A"))
	assert.Equal(t, as, res.Next)

	res = step(t, m, as, text("B"))
	assert.Equal(t, dialogue.AwaitingAnswerCorrectness{Draft: draft, Question: as.Question, Pending: "B"}, res.Next)
}

func TestDraftIsNotShared(t *testing.T) {
	base := quiz.Draft{Title: "T"}
	st := dialogue.AwaitingAddAnotherAnswer{Draft: base, Question: quiz.QuestionDraft{Text: "Q"}.WithAnswer("A", true)}
	m := newMachine(memory.New())

	res := step(t, m, st, text(TokenNo))
	next := res.Next.(dialogue.AwaitingAddAnotherQuestion)
	assert.Len(t, next.Draft.Questions, 1)
	assert.Empty(t, st.Draft.Questions)
}

func TestCommitConflictAsksForAnotherTitle(t *testing.T) {
	repo := memory.New()
	m := newMachine(repo)
	draft := quiz.Draft{Title: "T", Description: "D", Author: adminName}.
		WithQuestion(quiz.QuestionDraft{Text: "Q"}.WithAnswer("A", true))

	_, err := repo.Create(context.Background(), quiz.Draft{Title: "T"}.Build())
	require.NoError(t, err)

	res := step(t, m, dialogue.AwaitingAddAnotherQuestion{Draft: draft}, text(TokenNo))
	assert.Equal(t, dialogue.AwaitingRetitle{Draft: draft}, res.Next)

	res = step(t, m, res.Next, text("T"))
	assert.Equal(t, dialogue.AwaitingRetitle{Draft: draft}, res.Next)

	res = step(t, m, res.Next, text("T2"))
	assert.Equal(t, dialogue.Start{}, res.Next)
	q, found, err := repo.Retrieve(context.Background(), "T2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"Q"}, q.QuestionTexts())
}

func TestCommitFailureKeepsDraft(t *testing.T) {
	m := newMachine(failingRepo{Repository: memory.New(), create: errBoom})
	st := dialogue.AwaitingAddAnotherQuestion{Draft: quiz.Draft{Title: "T"}}

	next, _, err := m.Transition(context.Background(), st, text(TokenNo))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, st, next)
}

func TestTitleLookupFailureSurfaces(t *testing.T) {
	m := newMachine(failingRepo{Repository: memory.New(), retrieve: errBoom})
	_, err := m.Step(context.Background(), dialogue.AwaitingTitle{}, text("T"))
	assert.ErrorIs(t, err, errBoom)
}
