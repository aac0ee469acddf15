// Package ui holds the contracts between the routing layer and bot handlers.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that no command, callback or dialogue
// step claims, and users throttled by the rate limiter.
type FallbackProvider interface {
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	RateLimited() tele.HandlerFunc
}
