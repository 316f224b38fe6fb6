package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type mockContext struct {
	tele.Context
	msg     *tele.Message
	sendErr error
	sent    []interface{}
}

func (m *mockContext) Message() *tele.Message {
	return m.msg
}

func (m *mockContext) Send(what interface{}, opts ...interface{}) error {
	m.sent = append(m.sent, what)
	return m.sendErr
}

func startMessage() *tele.Message {
	return &tele.Message{
		ID:     1,
		Text:   "/start",
		Chat:   &tele.Chat{ID: 123456789, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 123456789, FirstName: "Test", Username: "testuser"},
	}
}

func TestStart(t *testing.T) {
	t.Run("RepliesOnce", func(t *testing.T) {
		c := &mockContext{msg: startMessage()}

		require.NoError(t, Start(c))
		require.Len(t, c.sent, 1)
		assert.Equal(t, "Hello, I am the PROD bot!", c.sent[0])
	})

	t.Run("NoMessage", func(t *testing.T) {
		c := &mockContext{}

		require.NoError(t, Start(c))
		assert.Empty(t, c.sent)
	})

	t.Run("NilContext", func(t *testing.T) {
		assert.NoError(t, Start(nil))
	})

	t.Run("SendErrorPropagates", func(t *testing.T) {
		sendErr := errors.New("network failure")
		c := &mockContext{msg: startMessage(), sendErr: sendErr}

		err := Start(c)
		assert.Same(t, sendErr, err)
		assert.Len(t, c.sent, 1)
	})
}

type apiCall struct {
	path   string
	params map[string]interface{}
}

func newFakeAPI(t *testing.T, respond func(w http.ResponseWriter)) (*httptest.Server, func() []apiCall) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []apiCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&params)
		mu.Lock()
		calls = append(calls, apiCall{path: r.URL.Path, params: params})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		respond(w)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []apiCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]apiCall(nil), calls...)
	}
}

func newOfflineBot(t *testing.T, srv *httptest.Server) *tele.Bot {
	t.Helper()

	bot, err := tele.NewBot(tele.Settings{
		URL:     srv.URL,
		Token:   "abc123",
		Offline: true,
		Client:  srv.Client(),
	})
	require.NoError(t, err)
	return bot
}

func TestStartSendsToOriginChat(t *testing.T) {
	srv, calls := newFakeAPI(t, func(w http.ResponseWriter) {
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":4242,"type":"private"},"text":%q}}`, StartReply)
	})
	bot := newOfflineBot(t, srv)

	c := bot.NewContext(tele.Update{
		ID: 10,
		Message: &tele.Message{
			ID:     3,
			Text:   "/start",
			Chat:   &tele.Chat{ID: 4242, Type: tele.ChatPrivate},
			Sender: &tele.User{ID: 99},
		},
	})
	require.NoError(t, Start(c))

	got := calls()
	require.Len(t, got, 1)
	assert.True(t, strings.HasSuffix(got[0].path, "/sendMessage"), got[0].path)
	assert.Contains(t, got[0].path, "abc123")
	assert.Equal(t, "4242", fmt.Sprint(got[0].params["chat_id"]))
	assert.Equal(t, StartReply, got[0].params["text"])
}

func TestStartIgnoresUpdateWithoutMessage(t *testing.T) {
	srv, calls := newFakeAPI(t, func(w http.ResponseWriter) {
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	})
	bot := newOfflineBot(t, srv)

	require.NoError(t, Start(bot.NewContext(tele.Update{ID: 11})))
	assert.Empty(t, calls())
}

func TestStartReturnsAPIError(t *testing.T) {
	srv, calls := newFakeAPI(t, func(w http.ResponseWriter) {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})
	bot := newOfflineBot(t, srv)

	c := bot.NewContext(tele.Update{
		ID:      12,
		Message: &tele.Message{ID: 4, Text: "/start", Chat: &tele.Chat{ID: 1, Type: tele.ChatPrivate}},
	})
	require.Error(t, Start(c))
	assert.Len(t, calls(), 1)
}
