package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/prodbot/core/logger"
	"github.com/m3rciful/prodbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidCommand is returned for registrations without a name or handler.
	ErrInvalidCommand = errors.New("invalid command registration")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
)

// Registry maps command names to their handlers.
// It is filled once during startup and only read afterwards.
type Registry struct {
	commands map[string]commands.Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// CommandEndpoint turns a command name into its telebot endpoint ("start" -> "/start").
func CommandEndpoint(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// RegisterCommand adds a new command under name, with or without the leading slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	endpoint := CommandEndpoint(name)
	if r == nil || endpoint == "" || endpoint == "/" || cmd.Handler == nil || strings.ContainsAny(endpoint, " \t\n") {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("event", "register.command.skip"),
			slog.String("command", name),
			slog.String("cause", "invalid"),
		)
		return fmt.Errorf("%w: %q", ErrInvalidCommand, name)
	}
	if _, exists := r.commands[endpoint]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("event", "register.command.duplicate"),
			slog.String("command", endpoint),
		)
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, endpoint)
	}
	r.commands[endpoint] = cmd
	return nil
}

// LookupCommand returns the command registered under name.
func (r *Registry) LookupCommand(name string) (commands.Command, bool) {
	if r == nil {
		return commands.Command{}, false
	}
	cmd, ok := r.commands[CommandEndpoint(name)]
	return cmd, ok
}

// Endpoints returns the registered endpoints in sorted order.
func (r *Registry) Endpoints() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.commands))
	for k := range r.commands {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len reports how many commands are registered.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.commands)
}

// ListCommands returns the command menu entries, skipping hidden commands
// and commands without a description.
func (r *Registry) ListCommands() []tele.Command {
	var list []tele.Command
	for _, endpoint := range r.Endpoints() {
		meta := r.commands[endpoint]
		if meta.Hidden || strings.TrimSpace(meta.Description) == "" {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(endpoint, "/"), Description: meta.Description})
	}
	return list
}

// InitBotCommands publishes the command menu shown by Telegram clients.
func InitBotCommands(client Client, reg *Registry) error {
	list := reg.ListCommands()
	if len(list) == 0 {
		return nil
	}
	if err := client.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("event", "register.commands.set_failed"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	return nil
}
