package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary is the single "handler.handled" line written for every routed
// update.
type summary struct {
	handler string
	start   time.Time
	extras  []slog.Attr
}

func newSummary(handler string, extras ...slog.Attr) summary {
	return summary{handler: handlerName(handler), start: time.Now(), extras: extras}
}

// run tags the update with the handler name, calls fn and logs its result.
func (s summary) run(c tele.Context, fn tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn(c)
	s.write(c, logger.Status(err), logger.OutcomeOf(err), err)
	return err
}

// skip logs an update nobody handled.
func (s summary) skip(c tele.Context) {
	s.write(c, "skip", logger.OutcomeOK, nil)
}

func (s summary) write(c tele.Context, status, outcome string, err error) {
	msgs, kb := middleware.Counters(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.handler),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.RoundMS(time.Since(s.start))),
	}, s.extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(tghelpers.WithHandler(c, s.handler), logger.CompTG, "handler.handled", attrs...)
}

// handlerName turns "/Take Quiz" into "take_quiz".
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode prefers a Code() string from anywhere in the chain and falls
// back to the concrete type name.
func errorCode(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		if code := strings.TrimSpace(coder.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}

// wrap installs recovery and update logging on a route handler.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.LoggerMiddleware(middleware.RecoverMiddleware(h))
}
