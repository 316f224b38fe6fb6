package logger

import (
	"context"
	"fmt"
	"log/slog"
)

type metaKey struct{}

// Meta identifies the update a log line belongs to.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// NewMeta returns Meta for one update with RID set to "update:chat:user".
func NewMeta(updateID int, chatID, userID int64) Meta {
	return Meta{
		RID:      fmt.Sprintf("%d:%d:%d", updateID, chatID, userID),
		UpdateID: updateID,
		UserID:   userID,
		ChatID:   chatID,
	}
}

// WithMeta stores m in ctx; every line logged with ctx carries its fields.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, metaKey{}, m)
}

// MetaFrom returns the Meta stored by WithMeta, or the zero value.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}

func (m Meta) attrs() []slog.Attr {
	var out []slog.Attr
	if m.RID != "" {
		out = append(out, slog.String("rid", m.RID))
	}
	if m.UpdateID != 0 {
		out = append(out, slog.Int("update_id", m.UpdateID))
	}
	if m.UserID != 0 {
		out = append(out, slog.Int64("user_id", m.UserID))
	}
	if m.ChatID != 0 {
		out = append(out, slog.Int64("chat_id", m.ChatID))
	}
	if m.Handler != "" {
		out = append(out, slog.String("handler", m.Handler))
	}
	return out
}
