package middleware

import (
	"runtime/debug"

	"github.com/druk3d/servicebot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware catches panics in handlers so a single bad update
// cannot take the bot down mid-dialog.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				attrs := []any{
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				}
				if u := c.Sender(); u != nil {
					attrs = append(attrs, slog.Int64("user_id", u.ID))
				}
				logger.TG.Error("panic recovered", attrs...)
			}
		}()
		return next(c)
	}
}
