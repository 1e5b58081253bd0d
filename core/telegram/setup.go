package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/druk3d/servicebot/core/logger"
	"github.com/druk3d/servicebot/core/telegram/middleware"
	"github.com/druk3d/servicebot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// SetupCommands binds registered commands (and their aliases) to the bot
// and publishes the visible command menu.
func SetupCommands(bot *tele.Bot, reg *Registry, adminID int64) {
	for name, cmd := range reg.Commands() {
		handler := middleware.WithAdminCheck(middleware.AdminOptions{AdminID: adminID}, cmd.AdminOnly, cmd.Handler)
		wrapped := router.Wrap(name, handler)
		bot.Handle(name, wrapped)
		for _, alias := range cmd.Aliases {
			if alias == "" {
				continue
			}
			if !strings.HasPrefix(alias, "/") {
				alias = "/" + alias
			}
			bot.Handle(alias, wrapped)
		}
	}

	InitBotCommands(bot, reg)
	logger.TWire.LogAttrs(context.Background(), slog.LevelDebug, "register.commands",
		slog.Int("count", len(reg.Commands())),
	)
}
