package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/prodbot/core/buildinfo"
	coreconfig "github.com/m3rciful/prodbot/core/config"
)

const (
	// ComponentApp scopes process lifecycle events.
	ComponentApp = "app"
	// ComponentTG scopes Telegram transport and handler events.
	ComponentTG = "tg"
	// ComponentTGWire scopes handler registration events.
	ComponentTGWire = "tg.wire"
)

var (
	mu      sync.Mutex
	writer  *asyncWriter
	logFile *os.File

	level   slog.LevelVar
	sampler everyN

	// L is the base logger. Until InitLogger runs it points at slog.Default.
	L *slog.Logger

	// App logs process lifecycle events.
	App *slog.Logger
	// TG logs Telegram transport and handler events.
	TG *slog.Logger
	// TWire logs command registration.
	TWire *slog.Logger
)

func init() {
	setBase(slog.Default())
	sampler.set(coreconfig.DefaultDebugSampleEvery)
}

func setBase(base *slog.Logger) {
	L = base
	App = base.With("component", ComponentApp)
	TG = base.With("component", ComponentTG)
	TWire = base.With("component", ComponentTGWire)
}

// InitLogger points the package loggers at stdout and, when logging.dir and
// logging.file are set, a log file. Calls after the first are no-ops until
// Shutdown.
func InitLogger(cfg *coreconfig.Config) error {
	return initWith(cfg, os.Stdout)
}

func initWith(cfg *coreconfig.Config, stdout io.Writer) error {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		return nil
	}

	sinks := []io.Writer{stdout}
	f, err := openLogFile(cfg)
	if err != nil {
		return err
	}
	if f != nil {
		sinks = append(sinks, f)
		logFile = f
	}

	level.Set(selectLevel(cfg))
	if cfg != nil {
		sampler.set(cfg.Logging.DebugSampleEvery)
	}
	writer = newAsyncWriter(sinks, 64*1024)
	format := selectFormat(cfg)
	setBase(slog.New(newHandler(writer, format, &level)))

	App.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("log_format", string(format)),
		slog.String("log_level", level.Level().String()),
	)
	return nil
}

// Shutdown flushes queued lines and closes the log file. Lines logged
// afterwards are dropped.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if writer == nil {
		return nil
	}
	var errs []error
	if err := writer.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := writer.Close(); err != nil {
		errs = append(errs, err)
	}
	writer = nil
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			errs = append(errs, err)
		}
		logFile = nil
	}
	return errors.Join(errs...)
}

func openLogFile(cfg *coreconfig.Config) (*os.File, error) {
	if cfg == nil {
		return nil, nil
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	name := strings.TrimSpace(cfg.Logging.File)
	if dir == "" || name == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// selectFormat honours logging.format and otherwise picks key=value output
// for the debug and dev profiles.
func selectFormat(cfg *coreconfig.Config) logFormat {
	if cfg == nil {
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Profile)) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func selectLevel(cfg *coreconfig.Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	var lvl slog.Level
	name := strings.TrimSpace(cfg.Logging.Level)
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogEvent logs attrs under event. A nil logg logs through App.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logg == nil {
		logg = App
	}
	logg.LogAttrs(ctx, lvl, event, attrs...)
}

// ShouldSampleDebug reports whether the next high-volume debug line is kept.
func ShouldSampleDebug() bool {
	return sampler.allow()
}
