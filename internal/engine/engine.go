// Package engine runs one dialogue turn per inbound event: it serializes
// turns per user, loads the state, applies the state machine, stores the
// next state and executes the resulting actions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/fsm"
)

// DefaultTimeout bounds the repository work of one turn.
const DefaultTimeout = 5 * time.Second

// ApologyText is sent when a turn fails and the state is kept.
const ApologyText = "Sorry, something went wrong. Please try again."

// Executor performs outbound actions in order.
type Executor interface {
	Execute(ctx context.Context, actions []fsm.Action) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, actions []fsm.Action) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, actions []fsm.Action) error {
	return f(ctx, actions)
}

// Recorder observes finished turns.
type Recorder interface {
	ObserveTransition(from, to dialogue.State, outcome string, took time.Duration)
}

// Transitioner computes one transition.
type Transitioner interface {
	Step(ctx context.Context, st dialogue.State, ev fsm.Event) (fsm.Result, error)
}

// Options configure an Engine.
type Options struct {
	Timeout  time.Duration
	Recorder Recorder
}

// Engine wires store, locker and machine together.
type Engine struct {
	store   dialogue.Store
	locker  dialogue.Locker
	machine Transitioner
	timeout time.Duration
	rec     Recorder
}

// New constructs an Engine.
func New(store dialogue.Store, locker dialogue.Locker, machine Transitioner, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if locker == nil {
		locker = dialogue.NewKeyedLocker()
	}
	return &Engine{store: store, locker: locker, machine: machine, timeout: opts.Timeout, rec: opts.Recorder}
}

// Handle processes ev to completion before another event of the same user
// is looked at. Repository and store failures are answered with an apology
// and leave the state unchanged; only lock and delivery failures are
// returned.
func (e *Engine) Handle(ctx context.Context, ev fsm.Event, exec Executor) error {
	userID := ev.Source().UserID
	return e.locker.WithLock(ctx, userID, func(ctx context.Context) error {
		return e.turn(ctx, userID, ev, exec)
	})
}

func (e *Engine) turn(ctx context.Context, userID int64, ev fsm.Event, exec Executor) error {
	start := time.Now()

	cur, err := e.store.Get(ctx, userID)
	if err != nil {
		e.logTurn(ctx, ev, nil, nil, logger.OutcomeOf(err), start, 0, err)
		return e.apologize(ctx, ev, exec)
	}
	ctx = logger.WithState(ctx, cur.Name())

	stepCtx, cancel := context.WithTimeout(ctx, e.timeout)
	res, err := e.machine.Step(stepCtx, cur, ev)
	cancel()
	if err != nil {
		outcome := logger.OutcomeOf(err)
		e.observe(cur, cur, outcome, start)
		e.logTurn(ctx, ev, cur, cur, outcome, start, 0, err)
		return e.apologize(ctx, ev, exec)
	}

	if err := e.store.Set(ctx, userID, res.Next); err != nil {
		e.observe(cur, cur, logger.OutcomeFail, start)
		e.logTurn(ctx, ev, cur, res.Next, logger.OutcomeFail, start, len(res.Actions), fmt.Errorf("store state: %w", err))
		// Repository effects already happened; the user still sees them.
		if execErr := exec.Execute(ctx, res.Actions); execErr != nil {
			return execErr
		}
		return e.apologize(ctx, ev, exec)
	}

	execErr := exec.Execute(ctx, res.Actions)
	e.observe(cur, res.Next, res.Outcome, start)
	e.logTurn(ctx, ev, cur, res.Next, res.Outcome, start, len(res.Actions), execErr)
	return execErr
}

func (e *Engine) apologize(ctx context.Context, ev fsm.Event, exec Executor) error {
	var actions []fsm.Action
	if cb, ok := ev.(fsm.CallbackSelection); ok {
		actions = append(actions, fsm.AcknowledgeCallback{CallbackID: cb.CallbackID})
	}
	actions = append(actions, fsm.SendText{ChatID: ev.Source().ChatID, Body: ApologyText})
	return exec.Execute(ctx, actions)
}

func (e *Engine) observe(from, to dialogue.State, outcome string, start time.Time) {
	if e.rec == nil {
		return
	}
	e.rec.ObserveTransition(from, to, outcome, time.Since(start))
}

func (e *Engine) logTurn(ctx context.Context, ev fsm.Event, from, to dialogue.State, outcome string, start time.Time, actions int, err error) {
	attrs := []slog.Attr{
		slog.Int64("user_id", ev.Source().UserID),
		slog.String("kind", ev.Kind()),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.Took(start)),
		slog.Int("actions", actions),
	}
	if to != nil {
		attrs = append(attrs, slog.String("next_state", to.Name()))
	}
	if from == nil {
		attrs = append(attrs, slog.String("state", "unknown"))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.Error(ctx, logger.CompEngine, "transition", attrs...)
		return
	}
	logger.Info(ctx, logger.CompEngine, "transition", attrs...)
}
