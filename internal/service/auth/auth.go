// Package auth decides who may use the operator console.
package auth

import (
	"context"

	"leadbot/core/logger"
	"log/slog"
)

// ManagerStore is the roster lookup the authorizer needs.
type ManagerStore interface {
	IsActiveManager(ctx context.Context, userID int64) (bool, error)
}

// Authorizer grants console access to the configured admin and to managers
// in the roster. Access is re-evaluated on every update, so a revocation
// takes effect immediately — including for managers seeded from config.
type Authorizer struct {
	adminID  int64
	managers ManagerStore
}

// New builds an authorizer from the configured admin and the runtime roster.
func New(adminID int64, managers ManagerStore) *Authorizer {
	return &Authorizer{adminID: adminID, managers: managers}
}

// IsAdmin reports whether the user is the configured admin. Only the admin
// may manage the manager roster.
func (a *Authorizer) IsAdmin(userID int64) bool {
	return a.adminID != 0 && userID == a.adminID
}

// IsOperator reports whether the user may use the operator console.
// A roster lookup failure denies access rather than failing open.
func (a *Authorizer) IsOperator(ctx context.Context, userID int64) bool {
	if a.IsAdmin(userID) {
		return true
	}
	if a.managers == nil {
		return false
	}
	active, err := a.managers.IsActiveManager(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "auth", "auth.check.failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return active
}
