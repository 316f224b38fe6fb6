package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/prodbot/core/logger"
	tghelpers "github.com/m3rciful/prodbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware logs a tg.panic line for a panicking handler and returns
// the panic as an error so the poller keeps running.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err = fmt.Errorf("telegram: handler panic: %v", r)
			logger.LogEvent(tghelpers.Context(c), logger.TG, slog.LevelError, "tg.panic",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(fmt.Sprint(r), 256)),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
