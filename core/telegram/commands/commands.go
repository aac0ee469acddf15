// Package commands describes slash commands independently of how they are
// routed.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is one slash command: its handler and how it appears in the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never published.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Canonical returns name with exactly one leading slash.
func Canonical(name string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

// Valid reports whether cmd can be registered.
func (c Command) Valid() bool {
	return c.Handler != nil && strings.TrimSpace(c.Description) != ""
}

// Published reports whether cmd belongs in the public command menu.
func (c Command) Published() bool {
	return !c.Hidden && !c.AdminOnly
}

// Answers reports whether name, with or without a slash, is one of the
// aliases of cmd.
func (c Command) Answers(name string) bool {
	name = Canonical(name)
	for _, alias := range c.Aliases {
		if Canonical(alias) == name {
			return true
		}
	}
	return false
}
