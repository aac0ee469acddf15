package router

import (
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/ui"
)

// All assembles the command, callback and text routes of a bot whose
// unmatched updates are answered by fb. opts gates AdminOnly commands on
// both the command and the alias path.
func All(reg *tg.Registry, dlg Dialogue, fb ui.FallbackProvider, opts CommandRouteOptions) []tg.Route {
	routes := CommandRoutes(reg, opts)
	text := TextOptions{Admin: opts}
	cb := CallbackOptions{}
	if fb != nil {
		text.UnknownDocument = fb.UnknownDocument()
		cb.NotFound = fb.UnknownCallback()
	}
	routes = append(routes, CallbackRoute(reg, cb))
	return append(routes, TextRoutes(dlg, reg, text)...)
}
