package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// MaxDataBytes is the Telegram limit for inline button callback data.
const MaxDataBytes = 64

// Encode renders unique and payload in Telebot's \f<unique>|<payload> layout.
func Encode(unique, payload string) string {
	if payload == "" {
		return "\f" + unique
	}
	return "\f" + unique + "|" + payload
}

// Fits reports whether unique and payload fit into one callback button.
func Fits(unique, payload string) bool {
	return len(Encode(unique, payload)) <= MaxDataBytes
}

// ParseCallbackData splits callback data into unique and payload.
// Telebot fills Unique only for endpoints registered as "\f<unique>"; generic
// OnCallback handlers see the raw encoded form.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	unique, payload, _ := strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey returns the unique part of the callback in c.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the payload part of the callback in c.
func CallbackPayload(c tele.Context) string {
	_, payload := ParseCallbackData(c.Callback())
	return payload
}
