package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// OperatorOnly restricts the command to the admin and managers.
	OperatorOnly bool
	// AdminOnly restricts the command to the configured admin alone.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}
