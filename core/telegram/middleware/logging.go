package middleware

import (
	"log/slog"

	"github.com/m3rciful/prodbot/core/logger"
	tghelpers "github.com/m3rciful/prodbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches update metadata to c and logs a sampled
// update.received line at debug level.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.Context(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", updateAttrs(c)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs,
			slog.String("username", logger.SanitizeLimit(user.Username, 64)),
			slog.String("lang", user.LanguageCode),
		)
	}
	return append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
}
