// Package commands declares the shape of a registered bot command.
package commands

import tele "gopkg.in/telebot.v4"

// Command binds a slash command to its handler. Hidden commands stay
// out of the published menu; AdminOnly ones are gated on the configured
// admin id. Aliases are extra slash endpoints routed to the same
// handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
