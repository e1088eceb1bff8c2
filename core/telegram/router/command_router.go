package router

import (
	"context"

	"leadbot/core/logger"
	tg "leadbot/core/telegram"
	"leadbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	// IsAdmin and IsOperator gate AdminOnly/OperatorOnly commands. Both are
	// consulted per update.
	IsAdmin    func(ctx context.Context, userID int64) bool
	IsOperator func(ctx context.Context, userID int64) bool
	OnReject   tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminGate := middleware.RestrictedMiddleware(middleware.AccessOptions{
		Allow:    opts.IsAdmin,
		OnReject: opts.OnReject,
	})
	operatorGate := middleware.RestrictedMiddleware(middleware.AccessOptions{
		Allow:    opts.IsOperator,
		OnReject: opts.OnReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		switch {
		case def.AdminOnly && opts.IsAdmin != nil:
			h = adminGate(h)
		case def.OperatorOnly && opts.IsOperator != nil:
			h = operatorGate(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
