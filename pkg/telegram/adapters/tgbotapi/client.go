// Package tgbotapi implements telegram.Bot on top of go-telegram-bot-api.
package tgbotapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/telegram"
)

// Bot represents a Telegram bot that implements telegram.Bot interface
type Bot struct {
	api         *tgbotapi.BotAPI
	log         *logger.Logger
	mu          sync.RWMutex
	running     bool
	webhookMode bool
	msgHandler  func(telegram.Update)
	rateLimiter *rate.Limiter
	timeout     int
}

// Config contains Telegram bot configuration
type Config struct {
	Token          string
	Debug          bool
	Timeout        int  // Long polling timeout in seconds
	WebhookMode    bool // If true, don't start polling (use webhook instead)
	HTTPTimeout    time.Duration
	RateLimitBurst int // Rate limiter burst (default: 30)
	RateLimitRate  int // Rate limiter per second (default: 20)
}

// NewBot creates a new Telegram bot instance that implements telegram.Bot interface
func NewBot(cfg Config, log *logger.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60
	}
	if cfg.HTTPTimeout == 0 {
		// must outlive the long polling timeout
		cfg.HTTPTimeout = time.Duration(cfg.Timeout+10) * time.Second
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 30
	}
	if cfg.RateLimitRate == 0 {
		cfg.RateLimitRate = 20 // Telegram allows 30 msg/sec
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	api.Debug = cfg.Debug

	log.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		webhookMode: cfg.WebhookMode,
		log:         log.With("component", "telegram_bot"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRate), cfg.RateLimitBurst),
		timeout:     cfg.Timeout,
	}, nil
}

// Start begins polling for updates (or just blocks if webhook mode)
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.mu.Unlock()

	if b.webhookMode {
		b.log.Infow("Bot running in webhook mode, not starting polling")
		<-ctx.Done()
		b.Stop()
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	u.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(u)

	b.log.Infow("Starting to poll for updates")

	for {
		select {
		case <-ctx.Done():
			b.log.Infow("Stopping bot due to context cancellation")
			b.Stop()
			return nil

		case tgUpdate, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(convertUpdate(tgUpdate))
		}
	}
}

func (b *Bot) dispatch(update telegram.Update) {
	b.mu.RLock()
	handler := b.msgHandler
	b.mu.RUnlock()

	if handler == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.log.Errorw("Panic in update handler", "panic", r, "update_id", update.UpdateID)
			}
		}()
		handler(update)
	}()
}

// Stop stops the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return
	}
	if !b.webhookMode {
		b.api.StopReceivingUpdates()
	}
	b.running = false
	b.log.Infow("Bot stopped")
}

// SetHandler sets the message handler (uses abstracted Update type)
func (b *Bot) SetHandler(handler func(telegram.Update)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgHandler = handler
}

// SendMessage sends plain text, split to fit Telegram's message limit
func (b *Bot) SendMessage(chatID int64, text string) error {
	for _, part := range telegram.SplitMessage(text, telegram.MaxMessageLength) {
		if _, err := b.SendMessageWithOptions(chatID, part, telegram.MessageOptions{DisableWebPagePreview: true}); err != nil {
			return err
		}
	}
	return nil
}

// SendMessageWithOptions sends message with custom options
func (b *Bot) SendMessageWithOptions(chatID int64, text string, opts telegram.MessageOptions) (int, error) {
	if err := b.rateLimiter.Wait(context.Background()); err != nil {
		return 0, errors.Wrap(err, "rate limiter error")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = opts.ParseMode
	msg.DisableWebPagePreview = opts.DisableWebPagePreview
	msg.DisableNotification = opts.DisableNotification
	if opts.ReplyToMessageID > 0 {
		msg.ReplyToMessageID = opts.ReplyToMessageID
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Errorw("Failed to send message", "chat_id", chatID, "error", err)
		return 0, errors.Wrap(err, "failed to send telegram message")
	}
	return sent.MessageID, nil
}

// SendTyping sends typing action
func (b *Bot) SendTyping(chatID int64) error {
	_, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// SetWebhook points Telegram at webhookURL
func (b *Bot) SetWebhook(webhookURL string) error {
	webhookConfig, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return errors.Wrap(err, "failed to create webhook config")
	}
	webhookConfig.MaxConnections = 40
	webhookConfig.AllowedUpdates = []string{"message"}

	if _, err := b.api.Request(webhookConfig); err != nil {
		return errors.Wrap(err, "failed to set webhook")
	}

	b.log.Infow("Webhook configured successfully", "url", webhookURL)
	return nil
}

// DeleteWebhook removes the webhook so long polling works again
func (b *Bot) DeleteWebhook(dropPendingUpdates bool) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPendingUpdates}); err != nil {
		return errors.Wrap(err, "failed to delete webhook")
	}
	return nil
}

var _ telegram.Bot = (*Bot)(nil)

// convertUpdate converts tgbotapi.Update to telegram.Update (abstraction layer)
func convertUpdate(tgUpdate tgbotapi.Update) telegram.Update {
	update := telegram.Update{UpdateID: tgUpdate.UpdateID}
	if tgUpdate.Message != nil {
		update.Message = convertMessage(tgUpdate.Message)
	}
	return update
}

func convertMessage(tgMsg *tgbotapi.Message) *telegram.Message {
	msg := &telegram.Message{
		MessageID: tgMsg.MessageID,
		Text:      tgMsg.Text,
		IsCommand: tgMsg.IsCommand(),
	}
	if tgMsg.From != nil {
		msg.From = &telegram.User{
			ID:        tgMsg.From.ID,
			FirstName: tgMsg.From.FirstName,
			LastName:  tgMsg.From.LastName,
			Username:  tgMsg.From.UserName,
			IsBot:     tgMsg.From.IsBot,
		}
	}
	if tgMsg.Chat != nil {
		msg.Chat = &telegram.Chat{ID: tgMsg.Chat.ID, Type: tgMsg.Chat.Type}
	}
	if msg.IsCommand {
		msg.Command = tgMsg.Command()
		msg.Arguments = tgMsg.CommandArguments()
	}
	return msg
}
