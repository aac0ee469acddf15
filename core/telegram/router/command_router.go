package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures admin gating for commands marked AdminOnly.
type CommandRouteOptions struct {
	AdminID       int64
	AdminUsername string
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, sorted by name and
// wrapped with recovery and update logging.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := adminGate(opts)

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		def := cmds[name]
		h := wrap(func(c tele.Context) error {
			return newSummary(name).run(c, def.Handler)
		})
		if def.AdminOnly {
			h = admin(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.Info(context.Background(), logger.CompWire, "wire.commands",
		slog.Int("commands", len(names)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func adminGate(opts CommandRouteOptions) tele.MiddlewareFunc {
	return middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:       opts.AdminID,
		AdminUsername: opts.AdminUsername,
		OnReject:      opts.OnAdminReject,
	})
}
