// Package helpers carries per-update log metadata on a telebot context.
package helpers

import (
	"context"

	"github.com/m3rciful/prodbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const metaKey = "log_meta"

// Meta returns the log metadata of the update behind c, deriving it from the
// update's chat and sender on first use.
func Meta(c tele.Context) logger.Meta {
	if c == nil {
		return logger.Meta{}
	}
	if m, ok := c.Get(metaKey).(logger.Meta); ok {
		return m
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	m := logger.NewMeta(c.Update().ID, chatID, userID)
	c.Set(metaKey, m)
	return m
}

// Context returns a context whose log lines carry Meta(c).
func Context(c tele.Context) context.Context {
	return logger.WithMeta(context.Background(), Meta(c))
}

// SetHandler records the handler name serving c.
func SetHandler(c tele.Context, name string) context.Context {
	m := Meta(c)
	if c != nil && name != "" {
		m.Handler = name
		c.Set(metaKey, m)
	}
	return logger.WithMeta(context.Background(), m)
}
