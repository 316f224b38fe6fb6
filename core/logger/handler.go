package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// metaHandler lifts the "event" attribute into the record message and appends
// update metadata from the context before handing the record to slog's
// JSON or text handler.
type metaHandler struct {
	next slog.Handler
}

func newHandler(w io.Writer, format logFormat, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	if format == formatKV {
		return &metaHandler{next: slog.NewTextHandler(w, opts)}
	}
	return &metaHandler{next: slog.NewJSONHandler(w, opts)}
}

func (h *metaHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *metaHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	seen := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "event" {
			if ev := a.Value.String(); ev != "" {
				out.Message = ev
			}
			return true
		}
		seen[a.Key] = struct{}{}
		out.AddAttrs(a)
		return true
	})
	if out.Message == "" {
		out.Message = "unknown"
	}
	for _, a := range MetaFrom(ctx).attrs() {
		if _, ok := seen[a.Key]; !ok {
			out.AddAttrs(a)
		}
	}
	return h.next.Handle(ctx, out)
}

func (h *metaHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &metaHandler{next: h.next.WithAttrs(attrs)}
}

func (h *metaHandler) WithGroup(name string) slog.Handler {
	return &metaHandler{next: h.next.WithGroup(name)}
}

// replaceAttr renames time and msg to ts and event, lowercases status,
// reports durations in whole milliseconds and drops blank strings.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format(timeFormatMillis))
	case slog.MessageKey:
		return slog.String("event", a.Value.String())
	case "status":
		return slog.String("status", strings.ToLower(strings.TrimSpace(a.Value.String())))
	}
	switch a.Value.Kind() {
	case slog.KindDuration:
		return slog.Int64(msKey(a.Key), RoundMS(a.Value.Duration()).Milliseconds())
	case slog.KindString:
		if strings.TrimSpace(a.Value.String()) == "" {
			return slog.Attr{}
		}
	}
	return a
}

func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}
