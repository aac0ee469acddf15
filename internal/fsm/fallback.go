package fsm

import (
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
)

// fallback answers any event no state accepts. The state never changes.
func (t *turn) fallback() Result {
	logger.Warn(t.ctx, logger.CompFSM, "fsm.fallback",
		slog.String("state", t.state.Name()),
		slog.String("kind", t.ev.Kind()),
	)
	if cb, ok := t.ev.(CallbackSelection); ok {
		t.actions = append(t.actions, AcknowledgeCallback{CallbackID: cb.CallbackID})
	}
	t.say(msgFallback)
	return Result{Next: t.state, Actions: t.actions, Outcome: logger.OutcomeFallback}
}
