package router

import (
	"log/slog"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound answers unknown keys when the registry has no fallback.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches OnCallback updates by callback unique. Registered
// handlers own the acknowledgement; unknown keys go to the fallback.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			if h = reg.CallbackNotFound(); h == nil {
				h = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
		}
		s := newSummary("callback."+handlerName(key), extras...)
		if h == nil {
			s.skip(c)
			return nil
		}
		return s.run(c, h)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
