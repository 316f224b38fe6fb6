// Package router turns registered commands into telebot routes.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/prodbot/core/logger"
	tg "github.com/m3rciful/prodbot/core/telegram"
	tghelpers "github.com/m3rciful/prodbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes returns one route per registered command. Each route logs a
// handler.handled line after the command returns and passes its error on
// unchanged.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	var routes []tg.Route
	for _, endpoint := range reg.Endpoints() {
		cmd, _ := reg.LookupCommand(endpoint)
		routes = append(routes, tg.Route{
			Endpoint: endpoint,
			Handler:  summarize(handlerName(endpoint), cmd.Handler),
		})
	}
	logger.TWire.Info("routes ready",
		slog.String("event", "routes.ready"),
		slog.Int("commands", len(routes)),
	)
	return routes
}

func summarize(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.SetHandler(c, name)
		err := h(c)

		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			attrs = append(attrs,
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.String("err_code", errorCode(err)),
			)
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
		return err
	}
}

// handlerName maps "/Start" to "start".
func handlerName(endpoint string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(endpoint), "/"))
	if name == "" {
		return "unknown"
	}
	return name
}

// errorCode classifies err for the err_code field: Bot API errors become
// TG_<status>, context errors keep their kind and anything else is INTERNAL.
func errorCode(err error) string {
	var apiErr *tele.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return "TG_" + strconv.Itoa(apiErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	}
	return "INTERNAL"
}
