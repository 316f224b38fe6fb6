// Package app wires the bot's commands into the Telegram runtime.
package app

import (
	"fmt"

	"github.com/m3rciful/prodbot/app/handlers"
	coreconfig "github.com/m3rciful/prodbot/core/config"
	coretelegram "github.com/m3rciful/prodbot/core/telegram"
	"github.com/m3rciful/prodbot/core/telegram/commands"
	"github.com/m3rciful/prodbot/core/telegram/router"
)

// StartCommand is the only command the bot answers.
const StartCommand = "start"

// App holds the configuration and command registry of one bot instance.
type App struct {
	cfg       *coreconfig.Config
	registry  *coretelegram.Registry
	newClient coretelegram.ClientFactory
}

// Option customises an App.
type Option func(*App)

// WithClientFactory overrides how the Telegram client is constructed.
func WithClientFactory(f coretelegram.ClientFactory) Option {
	return func(a *App) {
		a.newClient = f
	}
}

// New builds an App and registers its commands.
func New(cfg *coreconfig.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	a := &App{
		cfg:      cfg,
		registry: coretelegram.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	err := a.registry.RegisterCommand(StartCommand, commands.Command{
		Handler:     handlers.Start,
		Description: "Say hello",
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return a, nil
}

// Registry exposes the command registry.
func (a *App) Registry() *coretelegram.Registry {
	return a.registry
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		NewClient:   a.newClient,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      router.CommandRoutes(a.registry),
	}, nil
}
