package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/engine"
	"github.com/m3rciful/quizbot/internal/fsm"
	"github.com/m3rciful/quizbot/internal/storage/memory"
	"github.com/m3rciful/quizbot/internal/storage/storagetest"
)

type call struct {
	method string
	chatID int64
	msgID  string
	text   string
	markup *tele.ReplyMarkup
}

type fakeSender struct {
	mu      sync.Mutex
	calls   []call
	sendErr error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id, _ := strconv.ParseInt(to.Recipient(), 10, 64)
	c := call{method: "send", chatID: id, text: what.(string)}
	for _, o := range opts {
		if rm, ok := o.(*tele.ReplyMarkup); ok {
			c.markup = rm
		}
	}
	f.calls = append(f.calls, c)
	return &tele.Message{}, nil
}

func (f *fakeSender) Edit(msg tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgID, chatID := msg.MessageSig()
	f.calls = append(f.calls, call{method: "edit", chatID: chatID, msgID: msgID, text: what.(string)})
	return &tele.Message{}, nil
}

func (f *fakeSender) Respond(cb *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := call{method: "respond", msgID: cb.ID}
	if len(resp) > 0 {
		c.text = resp[0].Text
	}
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeSender) take() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

var (
	bob  = &tele.User{ID: 7, Username: "bob"}
	chat = &tele.Chat{ID: 70}
)

func message(text string) tele.Context {
	return (&tele.Bot{}).NewContext(tele.Update{
		ID:      1,
		Message: &tele.Message{ID: 10, Text: text, Sender: bob, Chat: chat},
	})
}

func press(payload string) tele.Context {
	return (&tele.Bot{}).NewContext(tele.Update{
		ID: 2,
		Callback: &tele.Callback{
			ID:      "cb1",
			Sender:  bob,
			Data:    callbacks.Encode(AnswerKey, payload),
			Message: &tele.Message{ID: 11, Text: "Question #1\nFrance?", Chat: chat},
		},
	})
}

func newHandler(t *testing.T) (*Handler, *fakeSender) {
	t.Helper()
	repo := memory.New()
	_, err := repo.Create(context.Background(), storagetest.Capitals())
	require.NoError(t, err)

	m := fsm.New(repo, fsm.Options{PayloadFits: PayloadFits})
	eng := engine.New(dialogue.NewMemoryStore(), nil, m, engine.Options{})
	api := &fakeSender{}
	return New(eng, WithSender(api)), api
}

func TestHandlerTakesQuizEndToEnd(t *testing.T) {
	h, api := newHandler(t)

	require.NoError(t, h.Command(fsm.CommandStart)(message("/start")))
	calls := api.take()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(70), calls[0].chatID)
	assert.Equal(t, "Please choose what to do:", calls[0].text)
	require.NotNil(t, calls[0].markup)
	assert.NotEmpty(t, calls[0].markup.ReplyKeyboard)

	require.NoError(t, h.HandleText(message(fsm.LabelTakeQuiz)))
	calls = api.take()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].markup)
	assert.Equal(t, "Capitals", calls[0].markup.ReplyKeyboard[0][0].Text)

	require.NoError(t, h.HandleText(message("Capitals")))
	calls = api.take()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].text, "Questions: 2")

	require.NoError(t, h.HandleText(message(fsm.TokenYes)))
	calls = api.take()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].markup.RemoveKeyboard)
	assert.Equal(t, "Question #1\nFrance?", calls[1].text)
	require.Len(t, calls[1].markup.InlineKeyboard, 2)
	btn := calls[1].markup.InlineKeyboard[0][0]
	assert.Equal(t, "Paris", btn.Text)
	assert.Equal(t, AnswerKey, btn.Unique)
	assert.Equal(t, "0:Paris", btn.Data)

	require.NoError(t, h.HandleCallback(press("0:Paris")))
	calls = api.take()
	require.Len(t, calls, 3)
	assert.Equal(t, "respond", calls[0].method)
	assert.Equal(t, "cb1", calls[0].msgID)
	assert.Equal(t, "edit", calls[1].method)
	assert.Equal(t, "11", calls[1].msgID)
	assert.Contains(t, calls[1].text, "Answer is correct")
	assert.Equal(t, "Question #2\nItaly?", calls[2].text)
}

func TestHandlerStaleCallbackIsAnswered(t *testing.T) {
	h, api := newHandler(t)

	require.NoError(t, h.HandleCallback(press("0:Paris")))
	calls := api.take()
	require.NotEmpty(t, calls)
	assert.Equal(t, "respond", calls[0].method)
}

func TestExecutorJoinsSendErrors(t *testing.T) {
	api := &fakeSender{sendErr: errors.New("boom")}
	x := executor{c: message("hi"), api: api}

	err := x.Execute(context.Background(), []fsm.Action{
		fsm.SendText{ChatID: 70, Body: "one"},
		fsm.AcknowledgeCallback{CallbackID: "cb"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	calls := api.take()
	require.Len(t, calls, 1)
	assert.Equal(t, "respond", calls[0].method)
}

func TestExecutorSplitsLongMessages(t *testing.T) {
	api := &fakeSender{}
	x := executor{c: message("hi"), api: api}
	body := strings.Repeat("a", MaxMessageRunes) + "\n" + "tail"

	require.NoError(t, x.Execute(context.Background(), []fsm.Action{
		fsm.SendText{ChatID: 70, Body: body, Options: fsm.Reply("ok")},
	}))
	calls := api.take()
	require.Len(t, calls, 2)
	assert.Nil(t, calls[0].markup)
	assert.Equal(t, "tail", calls[1].text)
	assert.NotNil(t, calls[1].markup)
}

func TestMarkup(t *testing.T) {
	assert.Nil(t, markup(nil))
	assert.True(t, markup(fsm.Remove()).RemoveKeyboard)

	grid := markup(fsm.Grid(2, "a", "b", "c"))
	require.Len(t, grid.ReplyKeyboard, 2)
	assert.Len(t, grid.ReplyKeyboard[0], 2)
	assert.Len(t, grid.ReplyKeyboard[1], 1)

	inline := markup(fsm.Inline([]string{"Paris"}, []string{"0:#0"}))
	require.Len(t, inline.InlineKeyboard, 1)
	assert.Equal(t, "0:#0", inline.InlineKeyboard[0][0].Data)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bb"}, splitMessage("aaaa\nbb", 5))
	assert.Equal(t, []string{"abc", "def", "g"}, splitMessage("abcdefg", 3))
}

func TestPayloadFits(t *testing.T) {
	assert.True(t, PayloadFits("0:Paris"))
	assert.False(t, PayloadFits("0:"+strings.Repeat("x", 64)))
}

func TestRegistryAndRoutes(t *testing.T) {
	h, _ := newHandler(t)
	reg, err := h.Registry()
	require.NoError(t, err)

	assert.Equal(t, []string{AnswerKey}, reg.ListCallbacks())
	cmds := reg.ListCommands(true)
	require.Len(t, cmds, 3)
	assert.Equal(t, "/cancel", cmds[0].Text)

	key, _, ok := reg.LookupCommand("start")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)

	_, newQuiz, ok := reg.LookupCommand("newquiz")
	require.True(t, ok)
	assert.True(t, newQuiz.AdminOnly)

	routes := h.Routes(reg)
	require.Len(t, routes, 8)
	assert.Equal(t, "/cancel", routes[0].Endpoint)
	assert.Equal(t, "/editquiz", routes[1].Endpoint)
	assert.Equal(t, tele.OnCallback, routes[5].Endpoint)
	assert.Equal(t, tele.OnText, routes[6].Endpoint)
}

func route(t *testing.T, h *Handler, endpoint string) tele.HandlerFunc {
	t.Helper()
	reg, err := h.Registry()
	require.NoError(t, err)
	for _, r := range h.Routes(reg) {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route %s", endpoint)
	return nil
}

func adminHandler(t *testing.T, admin middleware.AdminOptions) (*Handler, *fakeSender) {
	t.Helper()
	m := fsm.New(memory.New(), fsm.Options{IsAdmin: admin.Matches})
	eng := engine.New(dialogue.NewMemoryStore(), nil, m, engine.Options{})
	api := &fakeSender{}
	return New(eng, WithSender(api), WithAdmin(admin)), api
}

func TestAuthoringCommandAdminByID(t *testing.T) {
	h, api := adminHandler(t, middleware.AdminOptions{AdminID: bob.ID})

	require.NoError(t, route(t, h, "/newquiz")(message("/newquiz")))
	calls := api.take()
	require.Len(t, calls, 1)
	assert.Equal(t, "Let's start creating a new quiz! What's its title?", calls[0].text)
}

func TestAuthoringCommandRejectsOthers(t *testing.T) {
	h, api := adminHandler(t, middleware.AdminOptions{AdminID: 99, AdminUsername: "boss"})

	require.NoError(t, route(t, h, "/newquiz")(message("/newquiz")))
	calls := api.take()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(70), calls[0].chatID)
	assert.Equal(t, msgAdminOnly, calls[0].text)
}
