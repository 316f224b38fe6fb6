package handlers

import (
	tele "gopkg.in/telebot.v4"
)

// StartReply is the text sent in response to /start.
const StartReply = "Hello, I am the PROD bot!"

// Start replies to /start in the chat the command came from. Updates without
// a message are ignored. A send failure is returned unchanged.
func Start(c tele.Context) error {
	if c == nil || c.Message() == nil {
		return nil
	}
	return c.Send(StartReply)
}
