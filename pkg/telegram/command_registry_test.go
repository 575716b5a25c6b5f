package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/logger"
)

type recordingBot struct {
	mu     sync.Mutex
	sent   []string
	typing int
}

func (b *recordingBot) Start(ctx context.Context) error { <-ctx.Done(); return nil }
func (b *recordingBot) Stop()                           {}
func (b *recordingBot) SetHandler(func(Update))         {}

func (b *recordingBot) SendMessage(_ int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, text)
	return nil
}

func (b *recordingBot) SendMessageWithOptions(chatID int64, text string, _ MessageOptions) (int, error) {
	return 1, b.SendMessage(chatID, text)
}

func (b *recordingBot) SendTyping(int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.typing++
	return nil
}

func TestCommandRegistry_Handle(t *testing.T) {
	bot := &recordingBot{}
	reg := NewCommandRegistry(bot, logger.Nop())

	var got *CommandContext
	reg.MustRegister(CommandConfig{
		Name:        "agents",
		Aliases:     []string{"a"},
		Description: "List agents",
		Handler: func(c *CommandContext) error {
			got = c
			return c.Reply("five agents")
		},
	})

	require.NoError(t, reg.Handle(context.Background(), 7, 42, "A", "", "/a"))
	require.NotNil(t, got)
	assert.Equal(t, "agents", got.Command)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, []string{"five agents"}, bot.sent)

	require.NoError(t, reg.Handle(context.Background(), 7, 42, "nope", "", "/nope"))
	assert.Contains(t, bot.sent[1], "Unknown command: /nope")
}

func TestCommandRegistry_Register(t *testing.T) {
	reg := NewCommandRegistry(&recordingBot{}, logger.Nop())
	assert.Error(t, reg.Register(CommandConfig{Handler: func(*CommandContext) error { return nil }}))
	assert.Error(t, reg.Register(CommandConfig{Name: "x"}))
	assert.Panics(t, func() { reg.MustRegister(CommandConfig{Name: "x"}) })
}

func TestCommandRegistry_MiddlewareAndErrors(t *testing.T) {
	bot := &recordingBot{}
	reg := NewCommandRegistry(bot, logger.Nop())

	var order []string
	trace := func(name string) CommandMiddleware {
		return func(next CommandHandler) CommandHandler {
			return func(c *CommandContext) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	reg.Use(trace("global"))
	reg.Use(RecoveryMiddleware(logger.Nop()))
	reg.Use(TypingIndicatorMiddleware())

	var recorded []bool
	reg.MustRegister(CommandConfig{
		Name:       "boom",
		Middleware: []CommandMiddleware{trace("local"), MetricsMiddleware(func(_ string, ok bool, _ time.Duration) { recorded = append(recorded, ok) })},
		Handler:    func(*CommandContext) error { panic("kaboom") },
	})
	reg.MustRegister(CommandConfig{
		Name:    "fail",
		Handler: func(*CommandContext) error { return errors.New("nope") },
	})

	require.NoError(t, reg.Handle(context.Background(), 1, 1, "boom", "", "/boom"))
	assert.Equal(t, []string{"global", "local"}, order)
	assert.Equal(t, 1, bot.typing)
	assert.Contains(t, bot.sent[0], "Something went wrong")
	assert.Empty(t, recorded, "a panic skips the metrics hook")

	require.NoError(t, reg.Handle(context.Background(), 1, 1, "fail", "", "/fail"))
	assert.Contains(t, bot.sent[1], "Something went wrong")
}

func TestCommandRegistry_HelpText(t *testing.T) {
	reg := NewCommandRegistry(&recordingBot{}, logger.Nop())
	noop := func(*CommandContext) error { return nil }
	reg.MustRegister(CommandConfig{Name: "usage", Description: "Show usage", Handler: noop})
	reg.MustRegister(CommandConfig{Name: "agents", Aliases: []string{"a"}, Description: "List agents", Handler: noop})
	reg.MustRegister(CommandConfig{Name: "debug", Description: "internal", Handler: noop, Hidden: true})

	assert.Equal(t, "/agents - List agents\n/usage - Show usage", reg.HelpText())
	assert.Len(t, reg.Commands(true), 3)
	assert.True(t, reg.HasCommand("A"))
}

func TestWebhookHandler(t *testing.T) {
	updates := make(chan Update, 1)
	wh := NewWebhookHandler(func(u Update) { updates <- u }, logger.Nop())

	body := `{"update_id":9,"message":{"message_id":1,"chat":{"id":42,"type":"private"},"text":"/help@FinAssistBot"}}`
	rec := httptest.NewRecorder()
	wh.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case u := <-updates:
		require.NotNil(t, u.Message)
		assert.True(t, u.Message.IsCommand)
		assert.Equal(t, "help", u.Message.Command)
		assert.Equal(t, int64(42), u.Message.Chat.ID)
	case <-time.After(time.Second):
		t.Fatal("update not dispatched")
	}

	rec = httptest.NewRecorder()
	wh.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	wh.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
