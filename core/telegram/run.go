package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/prodbot/core/config"
	"github.com/m3rciful/prodbot/core/logger"
	tghelpers "github.com/m3rciful/prodbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with Client.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds Handler to Endpoint (a "/command" string or a tele.On* constant).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// NewClient defaults to NewClient (tele.NewBot).
	NewClient ClientFactory

	Middlewares []Middleware
	Routes      []Route

	// DisableWebhookCleanup skips deleteWebhook before polling.
	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see.
type Runtime struct {
	Client   Client
	Registry *Registry
}

// BuildSettings maps the configuration onto telebot settings.
func BuildSettings(cfg *coreconfig.Config) tele.Settings {
	poller := BuildPoller(PollerOptions{
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		AllowedUpdates:         cfg.Telegram.AllowedUpdates,
	})
	return tele.Settings{
		URL:     cfg.Telegram.APIURL,
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(poller.Timeout),
		OnError: OnError,
	}
}

// RunTelegram builds the client, installs middlewares and routes, and polls
// until ctx is done. A cancelled ctx is a normal exit and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	switch {
	case cfg == nil:
		return fmt.Errorf("telegram: nil config provided")
	case ctx.Err() != nil:
		return nil
	case cfg.Telegram.Token == "":
		return fmt.Errorf("telegram: %w", coreconfig.ErrMissingToken)
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.NewClient == nil {
		opts.NewClient = NewClient
	}

	settings := BuildSettings(cfg)
	began := time.Now()
	client, err := opts.NewClient(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	poller := settings.Poller.(*tele.LongPoller)
	logger.TG.Info("polling mode",
		slog.String("event", "mode"),
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", int(poller.Timeout/time.Second)),
		slog.Int("allowed_updates", len(poller.AllowedUpdates)),
		slog.Duration("duration", logger.Took(began)),
	)

	if !opts.DisableWebhookCleanup {
		removeWebhook(client, cfg.Telegram)
	}
	wire(client, opts)

	rt := Runtime{Client: client, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	pollErr := poll(ctx, client)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(pollErr, context.Canceled) {
		return nil
	}
	return pollErr
}

// removeWebhook clears a webhook left by an earlier deployment; getUpdates
// is refused while one is set. Failure is logged, not returned.
func removeWebhook(client Client, cfg coreconfig.TelegramConfig) {
	if err := client.RemoveWebhook(cfg.DropPendingUpdates); err != nil {
		logger.TG.Warn("failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("status", "fail"),
			slog.String("err", redact(err, cfg.Token)),
		)
		return
	}
	logger.TG.Info("webhook deleted",
		slog.String("event", "delete_webhook"),
		slog.String("status", "ok"),
		slog.Bool("drop_pending", cfg.DropPendingUpdates),
	)
}

func wire(client Client, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			client.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			client.Handle(r.Endpoint, r.Handler)
		}
	}
	if !opts.Config.Telegram.PublishCommands {
		return
	}
	if err := InitBotCommands(client, opts.Registry); err != nil {
		logger.TWire.Warn("command menu not published",
			slog.String("event", "register.commands"),
			slog.String("status", "fail"),
			slog.String("err", redact(err, opts.Config.Telegram.Token)),
		)
	}
}

// poll runs client.Start until it returns or ctx is done, in which case the
// client is stopped and ctx.Err is returned.
func poll(ctx context.Context, client Client) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		client.Start()
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		client.Stop()
		<-stopped
		return ctx.Err()
	}
}

// OnError is the telebot error hook. Handler errors are logged as
// handler.error and polling goes on.
func OnError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.Context(c)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelError, "handler.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

func redact(err error, token string) string {
	msg := err.Error()
	if token != "" {
		msg = strings.ReplaceAll(msg, token, "<token>")
	}
	return logger.SanitizeLimit(msg, 256)
}
