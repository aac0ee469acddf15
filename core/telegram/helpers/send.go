package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var shared atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs d as the queue used by Dispatch; nil makes every
// call synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	shared.Store(d)
}

// Dispatch queues run on the shared dispatcher. When no dispatcher is set,
// or its queue is full or closed, run executes on the caller's goroutine.
func Dispatch(c tele.Context, action, endpoint string, run func() error) error {
	d := shared.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText posts plain text to the chat of c through Dispatch.
func SendText(c tele.Context, text string, opts ...any) error {
	return Dispatch(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts...)
	})
}
