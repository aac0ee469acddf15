package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/storage/memory"
)

const adminName = "boss"

var admins = middleware.AdminOptions{AdminUsername: "@" + adminName}.Matches

var errBoom = errors.New("boom")

func meta() Meta {
	return Meta{UserID: 1, ChatID: 10, Username: adminName}
}

func text(s string) TextMessage {
	return TextMessage{Meta: meta(), Text: s}
}

func cmd(name CommandName) Command {
	return Command{Meta: meta(), Name: name}
}

func newMachine(repo quiz.Repository) *Machine {
	return New(repo, Options{IsAdmin: admins})
}

func step(t *testing.T, m *Machine, st dialogue.State, ev Event) Result {
	t.Helper()
	res, err := m.Step(context.Background(), st, ev)
	require.NoError(t, err)
	return res
}

func sends(actions []Action) []SendText {
	var out []SendText
	for _, a := range actions {
		if s, ok := a.(SendText); ok {
			out = append(out, s)
		}
	}
	return out
}

func bodies(actions []Action) []string {
	var out []string
	for _, s := range sends(actions) {
		out = append(out, s.Body)
	}
	return out
}

// failingRepo fails the listed operations and delegates the rest.
type failingRepo struct {
	quiz.Repository
	create   error
	retrieve error
	list     error
}

func (f failingRepo) Create(ctx context.Context, q quiz.Quiz) (string, error) {
	if f.create != nil {
		return "", f.create
	}
	return f.Repository.Create(ctx, q)
}

func (f failingRepo) Retrieve(ctx context.Context, title string) (quiz.Quiz, bool, error) {
	if f.retrieve != nil {
		return quiz.Quiz{}, false, f.retrieve
	}
	return f.Repository.Retrieve(ctx, title)
}

func (f failingRepo) ListQuizTitles(ctx context.Context) ([]string, error) {
	if f.list != nil {
		return nil, f.list
	}
	return f.Repository.ListQuizTitles(ctx)
}

func TestHelpKeepsState(t *testing.T) {
	m := newMachine(memory.New())
	st := dialogue.HandleQuiz{Quiz: "T"}

	res := step(t, m, st, cmd(CommandHelp))
	assert.Equal(t, st, res.Next)
	require.Len(t, res.Actions, 1)
	assert.Contains(t, bodies(res.Actions)[0], "/cancel")
}

func TestStartResendsMenu(t *testing.T) {
	m := newMachine(memory.New())

	res := step(t, m, dialogue.EditName{Quiz: "T"}, cmd(CommandStart))
	assert.Equal(t, dialogue.Start{}, res.Next)
	out := sends(res.Actions)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Options)
	assert.Equal(t, []string{LabelTakeQuiz, LabelCreateQuiz, LabelEditQuiz}, out[0].Options.Labels)
}

func TestMenuForRegularUser(t *testing.T) {
	m := newMachine(memory.New())
	ev := Command{Meta: Meta{UserID: 2, ChatID: 20, Username: "guest"}, Name: CommandStart}

	res := step(t, m, dialogue.Start{}, ev)
	assert.Equal(t, []string{LabelTakeQuiz}, sends(res.Actions)[0].Options.Labels)

	res = step(t, m, dialogue.Start{}, TextMessage{Meta: ev.Meta, Text: LabelCreateQuiz})
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, logger.OutcomeRejected, res.Outcome)
	assert.Equal(t, []string{msgAdminOnly}, bodies(res.Actions))

	res = step(t, m, dialogue.Start{}, TextMessage{Meta: ev.Meta, Text: LabelEditQuiz})
	assert.Equal(t, dialogue.Start{}, res.Next)
}

func TestEmptyAdminGrantsNobody(t *testing.T) {
	m := New(memory.New(), Options{})
	assert.False(t, m.IsAdmin(Meta{}))
	assert.False(t, m.IsAdmin(Meta{UserID: 1, Username: "anyone"}))
	assert.True(t, newMachine(memory.New()).IsAdmin(Meta{Username: "@Boss"}))

	m = New(memory.New(), Options{IsAdmin: middleware.AdminOptions{}.Matches})
	assert.False(t, m.IsAdmin(Meta{UserID: 1, Username: adminName}))
}

func TestAdminByIDOnly(t *testing.T) {
	m := New(memory.New(), Options{IsAdmin: middleware.AdminOptions{AdminID: 42}.Matches})
	owner := Meta{UserID: 42, ChatID: 42}

	res := step(t, m, dialogue.Start{}, TextMessage{Meta: owner, Text: LabelCreateQuiz})
	assert.Equal(t, dialogue.AwaitingTitle{}, res.Next)

	res = step(t, m, dialogue.Start{}, Command{Meta: owner, Name: CommandStart})
	menu := sends(res.Actions)[0].Options
	require.NotNil(t, menu)
	assert.Equal(t, []string{LabelTakeQuiz, LabelCreateQuiz, LabelEditQuiz}, menu.Labels)

	stranger := Meta{UserID: 7, ChatID: 7, Username: adminName}
	res = step(t, m, dialogue.Start{}, TextMessage{Meta: stranger, Text: LabelCreateQuiz})
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, []string{msgAdminOnly}, bodies(res.Actions))
}

func TestAuthoringCommands(t *testing.T) {
	repo := seeded(t, quiz.Draft{Title: "T"}.Build())
	m := newMachine(repo)
	draft := dialogue.AwaitingDescription{Title: "Half"}

	res := step(t, m, draft, cmd(CommandNewQuiz))
	assert.Equal(t, dialogue.AwaitingTitle{}, res.Next)

	res = step(t, m, draft, cmd(CommandEditQuiz))
	assert.Equal(t, dialogue.SelectQuiz{}, res.Next)

	res = step(t, New(repo, Options{}), dialogue.Start{}, cmd(CommandNewQuiz))
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, logger.OutcomeRejected, res.Outcome)
}

func TestCancelFromAnyState(t *testing.T) {
	draft := quiz.Draft{Title: "T", Description: "D"}
	q := quiz.Draft{Title: "Q"}.Build()
	states := []dialogue.State{
		dialogue.Start{},
		dialogue.AwaitingTitle{},
		dialogue.AwaitingDescription{Title: "T"},
		dialogue.AwaitingAddFirstQuestion{Draft: draft},
		dialogue.AwaitingQuestionText{Draft: draft},
		dialogue.AwaitingAnswerText{Draft: draft, Question: quiz.QuestionDraft{Text: "Q"}},
		dialogue.AwaitingAnswerCorrectness{Draft: draft, Pending: "A"},
		dialogue.AwaitingAddAnotherAnswer{Draft: draft},
		dialogue.AwaitingAddAnotherQuestion{Draft: draft},
		dialogue.AwaitingRetitle{Draft: draft},
		dialogue.SelectQuiz{},
		dialogue.HandleQuiz{Quiz: "T"},
		dialogue.EditName{Quiz: "T"},
		dialogue.EditDescription{Quiz: "T"},
		dialogue.AddQuestion{Quiz: "T"},
		dialogue.SelectQuestion{Quiz: "T"},
		dialogue.HandleQuestion{Quiz: "T", Question: "Q"},
		dialogue.EditQuestionText{Quiz: "T", Question: "Q"},
		dialogue.AddAnswer{Quiz: "T", Question: "Q"},
		dialogue.AddAnswerCorrectness{Quiz: "T", Question: "Q", Answer: "A"},
		dialogue.SelectAnswer{Quiz: "T", Question: "Q"},
		dialogue.HandleAnswer{Quiz: "T", Question: "Q", Answer: "A"},
		dialogue.EditAnswerText{Quiz: "T", Question: "Q", Answer: "A"},
		dialogue.EditCorrectness{Quiz: "T", Question: "Q", Answer: "A"},
		dialogue.SelectionAwaitingQuizTitle{},
		dialogue.ReadyToRun{Quiz: q},
		dialogue.Running{Quiz: q},
	}
	repo := memory.New()
	m := newMachine(repo)
	for _, st := range states {
		t.Run(st.Name(), func(t *testing.T) {
			res := step(t, m, st, cmd(CommandCancel))
			assert.Equal(t, dialogue.Start{}, res.Next)
			assert.Equal(t, logger.OutcomeOK, res.Outcome)
		})
	}
	titles, err := repo.ListQuizTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestFallbackOnCallbackOutsideRun(t *testing.T) {
	m := newMachine(memory.New())
	st := dialogue.HandleQuiz{Quiz: "T"}
	ev := CallbackSelection{Meta: meta(), CallbackID: "cb1", Data: "0:A"}

	res := step(t, m, st, ev)
	assert.Equal(t, st, res.Next)
	assert.Equal(t, logger.OutcomeFallback, res.Outcome)
	require.Len(t, res.Actions, 2)
	assert.Equal(t, AcknowledgeCallback{CallbackID: "cb1"}, res.Actions[0])
	assert.Equal(t, msgFallback, res.Actions[1].(SendText).Body)
}

func TestUnknownCommandFallsBack(t *testing.T) {
	m := newMachine(memory.New())
	res := step(t, m, dialogue.Start{}, cmd("nope"))
	assert.Equal(t, logger.OutcomeFallback, res.Outcome)
	assert.Equal(t, dialogue.Start{}, res.Next)
}

func TestTransitionKeepsStateOnRepositoryError(t *testing.T) {
	m := newMachine(failingRepo{Repository: memory.New(), list: errBoom})

	next, actions, err := m.Transition(context.Background(), dialogue.Start{}, text(LabelTakeQuiz))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, dialogue.Start{}, next)
	assert.Empty(t, actions)
}

func TestStartMenuWithoutQuizzes(t *testing.T) {
	m := newMachine(memory.New())

	res := step(t, m, dialogue.Start{}, text(LabelTakeQuiz))
	assert.Equal(t, dialogue.Start{}, res.Next)
	assert.Equal(t, []string{msgNoQuizzes}, bodies(res.Actions))

	res = step(t, m, dialogue.Start{}, text("hello"))
	assert.Equal(t, logger.OutcomeRejected, res.Outcome)
	assert.Equal(t, []string{msgInvalidInput}, bodies(res.Actions))
}

func TestNilStateIsStart(t *testing.T) {
	m := newMachine(memory.New())
	res := step(t, m, nil, text(LabelCreateQuiz))
	assert.Equal(t, dialogue.AwaitingTitle{}, res.Next)
}
