package router

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// Wrap instruments a handler with context propagation and a single
// summary log line per processed update.
func Wrap(name string, fn tele.HandlerFunc) tele.HandlerFunc {
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), "", "", func() error {
			return fn(c)
		})
	}
}
