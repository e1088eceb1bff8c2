package middleware

import (
	"context"

	tghelpers "leadbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AccessOptions defines how privileged-access checks behave. Allow is
// consulted on every update, so revoked access applies immediately.
type AccessOptions struct {
	Allow    func(ctx context.Context, userID int64) bool
	OnReject tele.HandlerFunc
}

// RestrictedMiddleware ensures only allowed users can invoke downstream handlers.
func RestrictedMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			if opts.Allow != nil && !opts.Allow(tghelpers.BuildContext(c), user.ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
