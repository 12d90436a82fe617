package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
// ManagerOnly commands are gated by the access-control service and hidden
// from the public command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	ManagerOnly bool
	Hidden      bool
	Aliases     []string
}
