// Package fsm is the dialogue state machine. Transition maps the current
// state and one inbound event to the next state and the outbound actions;
// the only side effects it performs are repository calls.
package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
)

// Options configure a Machine.
type Options struct {
	// IsAdmin decides who may create and edit quizzes. Nil means nobody may.
	IsAdmin func(userID int64, username string) bool
	// PayloadFits reports whether a callback payload can be delivered by the
	// transport. Nil accepts everything.
	PayloadFits func(payload string) bool
	// OnQuizCreated runs after a construction commit.
	OnQuizCreated func(ctx context.Context, title string)
	// OnQuizCompleted runs when a run ends with a score report.
	OnQuizCompleted func(ctx context.Context, title string, score, total int)
}

// Result is the outcome of one transition.
type Result struct {
	Next    dialogue.State
	Actions []Action
	// Outcome is logger.OutcomeOK when input was accepted,
	// logger.OutcomeRejected when the user is re-prompted and
	// logger.OutcomeFallback when nothing handled the event.
	Outcome string
}

// Machine implements the dialogue transitions on top of a repository.
type Machine struct {
	repo quiz.Repository
	opts Options
}

// New constructs a Machine.
func New(repo quiz.Repository, opts Options) *Machine {
	if opts.PayloadFits == nil {
		opts.PayloadFits = func(string) bool { return true }
	}
	return &Machine{repo: repo, opts: opts}
}

// Transition computes the next state and actions. It fails only with a
// repository error, in which case the caller keeps the current state.
func (m *Machine) Transition(ctx context.Context, st dialogue.State, ev Event) (dialogue.State, []Action, error) {
	res, err := m.Step(ctx, st, ev)
	if err != nil {
		return st, nil, err
	}
	return res.Next, res.Actions, nil
}

// Step is Transition with the outcome classification attached.
func (m *Machine) Step(ctx context.Context, st dialogue.State, ev Event) (Result, error) {
	if st == nil {
		st = dialogue.Start{}
	}
	t := &turn{ctx: ctx, m: m, ev: ev, state: st, meta: ev.Source()}

	switch e := ev.(type) {
	case Command:
		return t.command(e)
	case CallbackSelection:
		if running, ok := st.(dialogue.Running); ok {
			return t.selectAnswer(running, e), nil
		}
		return t.fallback(), nil
	case TextMessage:
		return t.text(e.Text)
	}
	return t.fallback(), nil
}

// IsAdmin reports whether the sender may author quizzes.
func (m *Machine) IsAdmin(who Meta) bool {
	return m.opts.IsAdmin != nil && m.opts.IsAdmin(who.UserID, who.Username)
}

func (t *turn) text(raw string) (Result, error) {
	text := quiz.NormalizeText(raw)
	switch st := t.state.(type) {
	case dialogue.Start:
		return t.start(text)

	case dialogue.AwaitingTitle:
		return t.awaitingTitle(text)
	case dialogue.AwaitingDescription:
		return t.awaitingDescription(st, text), nil
	case dialogue.AwaitingAddFirstQuestion:
		return t.addQuestionPrompt(st.Draft, raw)
	case dialogue.AwaitingAddAnotherQuestion:
		return t.addQuestionPrompt(st.Draft, raw)
	case dialogue.AwaitingQuestionText:
		return t.awaitingQuestionText(st, text), nil
	case dialogue.AwaitingAnswerText:
		return t.awaitingAnswerText(st, text), nil
	case dialogue.AwaitingAnswerCorrectness:
		return t.awaitingAnswerCorrectness(st, raw), nil
	case dialogue.AwaitingAddAnotherAnswer:
		return t.awaitingAddAnotherAnswer(st, raw), nil
	case dialogue.AwaitingRetitle:
		return t.awaitingRetitle(st, text)

	case dialogue.SelectQuiz:
		return t.selectQuiz(text)
	case dialogue.HandleQuiz:
		return t.handleQuiz(st, text)
	case dialogue.EditName:
		return t.editName(st, text)
	case dialogue.EditDescription:
		return t.editDescription(st, text)
	case dialogue.AddQuestion:
		return t.addQuestion(st, text)
	case dialogue.SelectQuestion:
		return t.selectQuestion(st, text)
	case dialogue.HandleQuestion:
		return t.handleQuestion(st, text)
	case dialogue.EditQuestionText:
		return t.editQuestionText(st, text)
	case dialogue.AddAnswer:
		return t.addAnswer(st, text)
	case dialogue.AddAnswerCorrectness:
		return t.addAnswerCorrectness(st, raw)
	case dialogue.SelectAnswer:
		return t.selectAnswerToEdit(st, text)
	case dialogue.HandleAnswer:
		return t.handleAnswer(st, text)
	case dialogue.EditAnswerText:
		return t.editAnswerText(st, text)
	case dialogue.EditCorrectness:
		return t.editCorrectness(st, raw)

	case dialogue.SelectionAwaitingQuizTitle:
		return t.selection(text)
	case dialogue.ReadyToRun:
		return t.readyToRun(st, raw), nil
	case dialogue.Running:
		t.say("Please choose an answer using the buttons under the question.")
		return t.reject(), nil
	}
	return t.fallback(), nil
}

// turn accumulates the actions of one transition.
type turn struct {
	ctx     context.Context
	m       *Machine
	ev      Event
	state   dialogue.State
	meta    Meta
	actions []Action
}

func (t *turn) say(body string) {
	t.sayWith(body, nil)
}

func (t *turn) sayf(format string, args ...any) {
	t.sayWith(fmt.Sprintf(format, args...), nil)
}

func (t *turn) sayWith(body string, opts *OptionSet) {
	t.actions = append(t.actions, SendText{ChatID: t.meta.ChatID, Body: body, Options: opts})
}

func (t *turn) to(next dialogue.State) Result {
	return Result{Next: next, Actions: t.actions, Outcome: logger.OutcomeOK}
}

// reject keeps the current state; the actions re-prompt the user.
func (t *turn) reject() Result {
	logger.Debug(t.ctx, logger.CompFSM, "fsm.rejected",
		slog.String("state", t.state.Name()),
		slog.String("kind", t.ev.Kind()),
	)
	return Result{Next: t.state, Actions: t.actions, Outcome: logger.OutcomeRejected}
}

// home returns to Start offering the main menu.
func (t *turn) home(body string) Result {
	t.sayWith(body, t.menu())
	return t.to(dialogue.Start{})
}

func (t *turn) menu() *OptionSet {
	if t.m.IsAdmin(t.meta) {
		return Reply(LabelTakeQuiz, LabelCreateQuiz, LabelEditQuiz)
	}
	return Reply(LabelTakeQuiz)
}

func (t *turn) author() string {
	if u := strings.TrimPrefix(t.meta.Username, "@"); u != "" {
		return u
	}
	return "anonymous"
}
