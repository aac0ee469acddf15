// Package bot adapts Telegram updates to dialogue events and renders the
// resulting actions through the Bot API.
package bot

import (
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	"github.com/m3rciful/quizbot/core/telegram/commands"
	"github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/router"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/core/telegram/ui"
	"github.com/m3rciful/quizbot/internal/engine"
	"github.com/m3rciful/quizbot/internal/fsm"

	tele "gopkg.in/telebot.v4"
)

const (
	msgUnknownDocument = "Unable to handle the message. Enter /help to see usages."
	msgUnknownCallback = "Unsupported action"
	msgRateLimited     = "Too many requests. Please slow down."
	msgAdminOnly       = "Sorry, only the administrator can create or edit quizzes."
)

// Handler feeds updates into the dialogue engine.
type Handler struct {
	engine *engine.Engine
	disp   *sender.Dispatcher
	// api overrides c.Bot() when set.
	api   Sender
	admin middleware.AdminOptions
}

var (
	_ router.Dialogue     = (*Handler)(nil)
	_ ui.FallbackProvider = (*Handler)(nil)
)

// Option customises a Handler.
type Option func(*Handler)

// WithDispatcher routes outgoing calls through d.
func WithDispatcher(d *sender.Dispatcher) Option {
	return func(h *Handler) { h.disp = d }
}

// WithAdmin sets who may run the authoring commands.
func WithAdmin(opts middleware.AdminOptions) Option {
	return func(h *Handler) {
		h.admin = opts
	}
}

// WithSender replaces the Bot API used to execute actions.
func WithSender(api Sender) Option {
	return func(h *Handler) { h.api = api }
}

// New returns a Handler driving eng.
func New(eng *engine.Engine, opts ...Option) *Handler {
	h := &Handler{engine: eng}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleText implements router.Dialogue.
func (h *Handler) HandleText(c tele.Context) error {
	return h.handle(c, fsm.TextMessage{Meta: meta(c), Text: c.Text()})
}

// HandleCallback turns an answer button press into a selection event.
func (h *Handler) HandleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	ev := fsm.CallbackSelection{
		Meta:       meta(c),
		CallbackID: cb.ID,
		Data:       callbacks.CallbackPayload(c),
	}
	if cb.Message != nil {
		ev.MessageID = cb.Message.ID
		ev.MessageText = cb.Message.Text
	}
	return h.handle(c, ev)
}

// Command returns the handler for a reserved command.
func (h *Handler) Command(name fsm.CommandName) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.handle(c, fsm.Command{Meta: meta(c), Name: name})
	}
}

func (h *Handler) handle(c tele.Context, ev fsm.Event) error {
	ctx := helpers.BuildContext(c)
	return h.engine.Handle(ctx, ev, h.executor(c))
}

func (h *Handler) executor(c tele.Context) executor {
	api := h.api
	if api == nil {
		api = c.Bot()
	}
	return executor{c: c, api: api, disp: h.disp}
}

// Registry registers the reserved commands and the answer callback.
func (h *Handler) Registry() (*tg.Registry, error) {
	reg := tg.NewRegistry()
	cmds := []struct {
		name string
		cmd  fsm.CommandName
		desc string
	}{
		{"/start", fsm.CommandStart, "Show the main menu"},
		{"/help", fsm.CommandHelp, "Show usage"},
		{"/cancel", fsm.CommandCancel, "Abort the current dialogue"},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, commands.Command{Handler: h.Command(c.cmd), Description: c.desc}); err != nil {
			return nil, err
		}
	}
	authoring := []struct {
		name string
		cmd  fsm.CommandName
		desc string
	}{
		{"/newquiz", fsm.CommandNewQuiz, "Create a new quiz"},
		{"/editquiz", fsm.CommandEditQuiz, "Edit an existing quiz"},
	}
	for _, c := range authoring {
		if err := reg.RegisterCommand(c.name, commands.Command{Handler: h.Command(c.cmd), Description: c.desc, AdminOnly: true}); err != nil {
			return nil, err
		}
	}
	if err := reg.RegisterCallback(AnswerKey, h.HandleCallback); err != nil {
		return nil, err
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return reg, nil
}

// Routes builds the command, callback and text routes served by the bot.
func (h *Handler) Routes(reg *tg.Registry) []tg.Route {
	return router.All(reg, h, h, router.CommandRouteOptions{
		AdminID:       h.admin.AdminID,
		AdminUsername: h.admin.AdminUsername,
		OnAdminReject: h.AdminRejected(),
	})
}

// AdminRejected answers authoring commands sent by anyone but the admin.
func (h *Handler) AdminRejected() tele.HandlerFunc {
	return func(c tele.Context) error {
		m := meta(c)
		return h.executor(c).Execute(helpers.BuildContext(c), []fsm.Action{
			fsm.SendText{ChatID: m.ChatID, Body: msgAdminOnly},
		})
	}
}

// UnknownDocument answers uploads, which no dialogue state accepts.
func (h *Handler) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return helpers.SendText(c, msgUnknownDocument)
	}
}

// UnknownCallback answers buttons that do not belong to a quiz.
func (h *Handler) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: msgUnknownCallback})
	}
}

// RateLimited tells the user to slow down.
func (h *Handler) RateLimited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: msgRateLimited})
		}
		return helpers.SendText(c, msgRateLimited)
	}
}

func meta(c tele.Context) fsm.Meta {
	var m fsm.Meta
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
		m.Username = u.Username
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	} else {
		m.ChatID = m.UserID
	}
	return m
}
