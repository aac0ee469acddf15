package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
// Either identity matches; zero values disable that check.
type AdminOptions struct {
	AdminID       int64
	AdminUsername string
	OnReject      tele.HandlerFunc
}

// IsAdmin reports whether user matches the configured admin identity.
// With nothing configured every user is rejected.
func (o AdminOptions) IsAdmin(user *tele.User) bool {
	if user == nil {
		return false
	}
	return o.Matches(user.ID, user.Username)
}

// Matches is IsAdmin for callers that only hold the sender's id and username.
func (o AdminOptions) Matches(userID int64, username string) bool {
	if o.AdminID != 0 && userID == o.AdminID {
		return true
	}
	name := strings.TrimPrefix(strings.TrimSpace(o.AdminUsername), "@")
	return name != "" && strings.EqualFold(strings.TrimPrefix(username, "@"), name)
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.IsAdmin(c.Sender()) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
