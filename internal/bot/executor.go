package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/fsm"

	tele "gopkg.in/telebot.v4"
)

// Sender is the subset of the Bot API used to execute actions.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// executor performs actions for one update. Messages go out in order on the
// caller goroutine; callback answers are queued.
type executor struct {
	c    tele.Context
	api  Sender
	disp *sender.Dispatcher
}

func (x executor) Execute(ctx context.Context, actions []fsm.Action) error {
	var errs []error
	for _, a := range actions {
		var err error
		switch v := a.(type) {
		case fsm.SendText:
			err = x.send(ctx, v)
		case fsm.EditMessageText:
			err = x.edit(ctx, v)
		case fsm.AcknowledgeCallback:
			err = x.ack(ctx, v)
		default:
			logger.Warn(ctx, logger.CompEngine, "action.unknown", slog.String("kind", a.Kind()))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (x executor) send(ctx context.Context, v fsm.SendText) error {
	rm := markup(v.Options)
	chunks := splitMessage(v.Body, MaxMessageRunes)
	for i, chunk := range chunks {
		opts := []interface{}{}
		if rm != nil && i == len(chunks)-1 {
			opts = append(opts, rm)
		}
		text := chunk
		err := x.do(ctx, "send.text", "sendMessage", func() error {
			_, err := x.api.Send(tele.ChatID(v.ChatID), text, opts...)
			return err
		})
		if err != nil {
			return err
		}
		middleware.CountMessage(x.c, len(opts) > 0)
	}
	return nil
}

func (x executor) edit(ctx context.Context, v fsm.EditMessageText) error {
	msg := tele.StoredMessage{MessageID: strconv.Itoa(v.MessageID), ChatID: v.ChatID}
	err := x.do(ctx, "edit.text", "editMessageText", func() error {
		_, err := x.api.Edit(msg, v.Body)
		return err
	})
	if err == nil {
		middleware.CountMessage(x.c, false)
	}
	return err
}

func (x executor) ack(ctx context.Context, v fsm.AcknowledgeCallback) error {
	cb := &tele.Callback{ID: v.CallbackID}
	run := func() error {
		if v.Text == "" {
			return x.api.Respond(cb)
		}
		return x.api.Respond(cb, &tele.CallbackResponse{Text: v.Text})
	}
	if x.disp == nil {
		return run()
	}
	err := x.disp.Enqueue(ctx, "callback.answer", "answerCallbackQuery", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", "callback.answer"),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func (x executor) do(ctx context.Context, action, endpoint string, run func() error) error {
	if x.disp == nil {
		return run()
	}
	return x.disp.Do(ctx, action, endpoint, run)
}
