// Package cmd runs a Telegram application as a process.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/prodbot/core/config"
	"github.com/m3rciful/prodbot/core/logger"
	coretelegram "github.com/m3rciful/prodbot/core/telegram"
)

// TelegramApp supplies the run options of one bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options controls Run. Every function field has a production default.
type Options struct {
	// EnvFiles are loaded before configuration; nil means ".env".
	EnvFiles []string
	// ConfigEnvVar names the variable holding the YAML path; default CONFIG_PATH.
	ConfigEnvVar string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(cfg *coreconfig.Config) (TelegramApp, error)

	InitLogger     func(cfg *coreconfig.Config) error
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

func (o *Options) setDefaults() {
	if o.EnvFiles == nil {
		o.EnvFiles = []string{".env"}
	}
	if o.ConfigEnvVar == "" {
		o.ConfigEnvVar = "CONFIG_PATH"
	}
	if o.LoadConfig == nil {
		o.LoadConfig = coreconfig.Load
	}
	if o.InitLogger == nil {
		o.InitLogger = logger.InitLogger
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
}

// Run loads configuration, bootstraps the app and polls until SIGINT or SIGTERM.
func Run(opts Options) error {
	return RunContext(context.Background(), opts)
}

// RunContext is Run under a caller supplied parent context.
func RunContext(parent context.Context, opts Options) error {
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	opts.setDefaults()
	if parent == nil {
		parent = context.Background()
	}
	began := time.Now()

	if err := coreconfig.LoadEnvFiles(opts.EnvFiles...); err != nil {
		return fmt.Errorf("cmd: %w", err)
	}
	path := os.Getenv(opts.ConfigEnvVar)
	if path != "" {
		log.Printf("loading config: %s", path)
	}
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	if err := opts.InitLogger(cfg); err != nil {
		return fmt.Errorf("cmd: logger init failed: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	if runOpts.Config == nil {
		runOpts.Config = cfg
	}
	addLifecycleLogs(&runOpts, began)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return opts.RunTelegram(ctx, runOpts)
}

// addLifecycleLogs logs ready after the app's OnStart succeeds and shutdown
// before its OnStop runs.
func addLifecycleLogs(opts *coretelegram.RunOptions, began time.Time) {
	onStart, onStop := opts.OnStart, opts.OnStop

	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.App.Info("app ready",
			slog.String("event", "ready"),
			slog.Int("commands", rt.Registry.Len()),
			slog.Duration("startup_duration", logger.Took(began)),
		)
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.App.Info("shutting down",
			slog.String("event", "shutdown"),
		)
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
}
