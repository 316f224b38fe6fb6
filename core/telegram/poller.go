package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/prodbot/core/config"

	tele "gopkg.in/telebot.v4"
)

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	LongPollTimeoutSeconds int
	// AllowedUpdates lists update kinds to request; empty requests all of them.
	AllowedUpdates []string
}

// BuildPoller returns the long poller used to receive updates.
func BuildPoller(opts PollerOptions) *tele.LongPoller {
	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = coreconfig.DefaultLongPollTimeoutSeconds
	}
	allowed := opts.AllowedUpdates
	if len(allowed) == 0 {
		allowed = coreconfig.AllUpdateTypes
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(timeoutSec) * time.Second,
		AllowedUpdates: append([]string(nil), allowed...),
	}
}
