package telegram

import (
	tele "gopkg.in/telebot.v4"
)

// Client is the part of *tele.Bot the runtime drives.
type Client interface {
	Use(middleware ...tele.MiddlewareFunc)
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
	SetCommands(opts ...interface{}) error
	RemoveWebhook(dropPending ...bool) error
	Start()
	Stop()
}

// ClientFactory constructs a Client bound to the given settings.
type ClientFactory func(settings tele.Settings) (Client, error)

// NewClient is the default ClientFactory backed by tele.NewBot.
func NewClient(settings tele.Settings) (Client, error) {
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

var _ Client = (*tele.Bot)(nil)
