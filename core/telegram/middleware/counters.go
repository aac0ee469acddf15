package middleware

import tele "gopkg.in/telebot.v4"

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// CountMessage records one outbound message on the update context. The
// handler summary line reports the totals.
func CountMessage(c tele.Context, withKeyboard bool) {
	if c == nil {
		return
	}
	n, _ := c.Get(keyMessages).(int)
	c.Set(keyMessages, n+1)
	if withKeyboard {
		c.Set(keyKeyboard, true)
	}
}

// Counters returns the number of messages sent for the update and whether
// any of them carried a keyboard.
func Counters(c tele.Context) (messages int, keyboard bool) {
	messages, _ = c.Get(keyMessages).(int)
	keyboard, _ = c.Get(keyKeyboard).(bool)
	return messages, keyboard
}

// CountersMiddleware resets the counters at the start of every update.
func CountersMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		return next(c)
	}
}
