package router

import (
	"strings"

	tg "github.com/m3rciful/quizbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Dialogue receives every text update that is not a registered command.
type Dialogue interface {
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and document updates.
type TextOptions struct {
	// UnknownText answers texts when no dialogue is wired.
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	// Admin gates AdminOnly commands reached through their aliases.
	Admin CommandRouteOptions
}

// TextRoutes builds the OnText and OnDocument routes. A slash-prefixed text
// naming a registered command or alias runs that command; everything else
// goes to the dialogue.
func TextRoutes(dlg Dialogue, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		msg := c.Text()
		if reg != nil && strings.HasPrefix(msg, "/") {
			name, _, _ := strings.Cut(msg, " ")
			if key, cmd, ok := reg.LookupCommand(name); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = adminGate(opts.Admin)(h)
				}
				return newSummary(key).run(c, h)
			}
		}
		switch {
		case dlg != nil:
			return newSummary("dialogue").run(c, dlg.HandleText)
		case opts.UnknownText != nil:
			return newSummary("unknown_text").run(c, opts.UnknownText)
		}
		newSummary("unknown_text").skip(c)
		return nil
	}

	document := func(c tele.Context) error {
		s := newSummary("unexpected_document")
		if opts.UnknownDocument == nil {
			s.skip(c)
			return nil
		}
		return s.run(c, opts.UnknownDocument)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnDocument, Handler: wrap(document)},
	}
}
