package app

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/prodbot/app/handlers"
	corecmd "github.com/m3rciful/prodbot/core/cmd"
	coreconfig "github.com/m3rciful/prodbot/core/config"
	coretelegram "github.com/m3rciful/prodbot/core/telegram"
)

type fakeClient struct {
	mu       sync.Mutex
	settings tele.Settings
	handlers map[interface{}]tele.HandlerFunc
	order    []interface{}
	starts   int
	stops    int
	webhooks []bool
}

func (f *fakeClient) Use(...tele.MiddlewareFunc) {}

func (f *fakeClient) Handle(endpoint interface{}, h tele.HandlerFunc, _ ...tele.MiddlewareFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[interface{}]tele.HandlerFunc)
	}
	f.handlers[endpoint] = h
	f.order = append(f.order, endpoint)
}

func (f *fakeClient) SetCommands(...interface{}) error { return nil }

func (f *fakeClient) RemoveWebhook(dropPending ...bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webhooks = append(f.webhooks, dropPending...)
	return nil
}

func (f *fakeClient) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeClient) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

type recordingFactory struct {
	mu      sync.Mutex
	calls   int
	clients []*fakeClient
}

func (r *recordingFactory) New(settings tele.Settings) (coretelegram.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	c := &fakeClient{settings: settings}
	r.clients = append(r.clients, c)
	return c, nil
}

func runOptions(factory *recordingFactory) corecmd.Options {
	return corecmd.Options{
		EnvFiles:       []string{},
		InitLogger:     func(*coreconfig.Config) error { return nil },
		ShutdownLogger: func() error { return nil },
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return New(cfg, WithClientFactory(factory.New))
		},
	}
}

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]interface{}
	sent  []interface{}
}

func (c *fakeContext) Message() *tele.Message { return c.msg }
func (c *fakeContext) Update() tele.Update    { return tele.Update{ID: 1, Message: c.msg} }
func (c *fakeContext) Chat() *tele.Chat       { return c.msg.Chat }
func (c *fakeContext) Sender() *tele.User     { return c.msg.Sender }

func (c *fakeContext) Get(key string) interface{} { return c.store[key] }

func (c *fakeContext) Set(key string, val interface{}) {
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	t.Setenv(coreconfig.TokenEnvVar, "abc123")
	t.Setenv("CONFIG_PATH", "")

	factory := &recordingFactory{}
	require.NoError(t, corecmd.RunContext(context.Background(), runOptions(factory)))

	require.Equal(t, 1, factory.calls)
	client := factory.clients[0]
	assert.Equal(t, "abc123", client.settings.Token)
	assert.Equal(t, []interface{}{"/start"}, client.order)
	assert.Equal(t, 1, client.starts)
	assert.Equal(t, []bool{false}, client.webhooks)

	poller, ok := client.settings.Poller.(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, coreconfig.AllUpdateTypes, poller.AllowedUpdates)

	c := &fakeContext{msg: &tele.Message{
		Text:   "/start",
		Chat:   &tele.Chat{ID: 77, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 5},
	}}
	require.NoError(t, client.handlers["/start"](c))
	assert.Equal(t, []interface{}{handlers.StartReply}, c.sent)
}

func TestRunMissingToken(t *testing.T) {
	for name, set := range map[string]bool{"Unset": false, "Empty": true} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(coreconfig.TokenEnvVar, "")
			if !set {
				require.NoError(t, os.Unsetenv(coreconfig.TokenEnvVar))
			}
			t.Setenv("CONFIG_PATH", "")

			factory := &recordingFactory{}
			err := corecmd.RunContext(context.Background(), runOptions(factory))
			require.ErrorIs(t, err, coreconfig.ErrMissingToken)
			assert.Contains(t, err.Error(), "BOT_TOKEN")
			assert.Zero(t, factory.calls)
		})
	}
}

func TestNewRegistersStart(t *testing.T) {
	a, err := New(&coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "abc123"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"/start"}, a.Registry().Endpoints())
	cmd, ok := a.Registry().LookupCommand(StartCommand)
	require.True(t, ok)
	assert.NotNil(t, cmd.Handler)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.Len(t, opts.Routes, 1)
	assert.Equal(t, "/start", opts.Routes[0].Endpoint)

	_, err = New(nil)
	require.Error(t, err)
}
