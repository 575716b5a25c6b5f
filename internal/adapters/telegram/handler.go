// Package telegram exposes the assistant as a Telegram bot. Each chat is one
// assistant session.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"finassist/internal/agents"
	"finassist/internal/assistant"
	"finassist/internal/metrics"
	"finassist/pkg/logger"
	"finassist/pkg/telegram"
	"finassist/pkg/templates"
)

const welcomeText = `👋 Welcome to the AI Finance Assistant!

I'm an educational assistant backed by five specialist agents: market data, portfolio analysis, goal planning, tax education and general finance Q&A.

Just send me a question, for example:
%s

Commands:
%s

⚠️ Everything I say is for educational purposes only and is not financial advice.`

// Assistant is the pipeline surface the bot needs.
type Assistant interface {
	ProcessQuery(ctx context.Context, q assistant.Query) *assistant.Response
	Agents() []agents.AgentInfo
	Usage(ctx context.Context, sessionID string) (*assistant.UsageReport, error)
	SystemInfo() string
}

var _ Assistant = (*assistant.Assistant)(nil)

// Handler routes Telegram updates to commands or to the assistant.
type Handler struct {
	bot       telegram.Bot
	commands  *telegram.CommandRegistry
	assistant Assistant
	log       *logger.Logger
}

// NewHandler creates the handler and registers the bot commands.
func NewHandler(bot telegram.Bot, a Assistant, log *logger.Logger) *Handler {
	h := &Handler{
		bot:       bot,
		commands:  telegram.NewCommandRegistry(bot, log),
		assistant: a,
		log:       log.With("component", "telegram_handler"),
	}

	h.commands.Use(telegram.RecoveryMiddleware(h.log))
	h.commands.Use(telegram.LoggingMiddleware(h.log))
	h.commands.Use(telegram.MetricsMiddleware(metrics.RecordChatCommand))

	h.commands.MustRegister(telegram.CommandConfig{
		Name:        "start",
		Description: "Introduction and example questions",
		Handler:     h.handleStart,
	})
	h.commands.MustRegister(telegram.CommandConfig{
		Name:        "help",
		Description: "Show available commands",
		Handler:     h.handleStart,
	})
	h.commands.MustRegister(telegram.CommandConfig{
		Name:        "ask",
		Usage:       "/ask <question>",
		Description: "Ask a finance question",
		Handler:     h.handleAsk,
		Middleware:  []telegram.CommandMiddleware{telegram.TypingIndicatorMiddleware()},
	})
	h.commands.MustRegister(telegram.CommandConfig{
		Name:        "agents",
		Aliases:     []string{"info"},
		Description: "List the specialist agents and their tools",
		Handler:     h.handleAgents,
	})
	h.commands.MustRegister(telegram.CommandConfig{
		Name:        "usage",
		Aliases:     []string{"stats"},
		Description: "Show your usage statistics",
		Handler:     h.handleUsage,
	})
	return h
}

// HandleUpdate processes one update. It is safe to call concurrently.
func (h *Handler) HandleUpdate(update telegram.Update) {
	if !update.HasMessage() || update.Message.Chat == nil {
		return
	}
	msg := update.Message
	ctx := context.Background()

	var userID int64
	if msg.From != nil {
		if msg.From.IsBot {
			return
		}
		userID = msg.From.ID
	}

	if msg.IsCommand {
		if err := h.commands.Handle(ctx, userID, msg.Chat.ID, msg.Command, msg.Arguments, msg.Text); err != nil {
			h.log.Errorw("Failed to handle command", "command", msg.Command, "chat_id", msg.Chat.ID, "error", err)
		}
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	_ = h.bot.SendTyping(msg.Chat.ID)
	if err := h.answer(ctx, msg.Chat.ID, msg.Text); err != nil {
		h.log.Errorw("Failed to answer message", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (h *Handler) answer(ctx context.Context, chatID int64, text string) error {
	resp := h.assistant.ProcessQuery(ctx, assistant.Query{
		Text:      text,
		SessionID: SessionID(chatID),
		Channel:   assistant.ChannelTelegram,
	})
	return h.sendReply(chatID, resp)
}

// replyChunk is the plain-text budget of one message; escaping for MarkdownV2
// at most doubles it.
const replyChunk = telegram.MaxMessageLength / 2

// formatReply renders a response as MarkdownV2 messages: the routing line in
// italics above the answer, "**" markers removed and everything else escaped.
func formatReply(resp *assistant.Response) []string {
	var parts []string
	for _, chunk := range telegram.SplitMessage(templates.StripMarkdownBold(resp.Text), replyChunk) {
		parts = append(parts, templates.SafeTextV2(chunk))
	}
	if resp.RoutingInfo == "" {
		return parts
	}

	header := "_" + templates.SafeTextV2(templates.StripMarkdownBold(resp.RoutingInfo)) + "_"
	if telegram.TextLength(header)+2+telegram.TextLength(parts[0]) <= telegram.MaxMessageLength {
		parts[0] = header + "\n\n" + parts[0]
		return parts
	}
	return append([]string{header}, parts...)
}

func (h *Handler) sendReply(chatID int64, resp *assistant.Response) error {
	opts := telegram.MessageOptions{ParseMode: "MarkdownV2", DisableWebPagePreview: true}
	for i, part := range formatReply(resp) {
		if _, err := h.bot.SendMessageWithOptions(chatID, part, opts); err != nil {
			if i > 0 {
				return err
			}
			h.log.Warnw("MarkdownV2 reply rejected, sending plain text", "chat_id", chatID, "error", err)
			return h.bot.SendMessage(chatID, resp.Display())
		}
	}
	return nil
}

// SessionID maps a chat to its assistant session.
func SessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (h *Handler) handleStart(c *telegram.CommandContext) error {
	var examples strings.Builder
	for _, e := range assistant.Examples {
		fmt.Fprintf(&examples, "• %s\n", e.Query)
	}
	return c.Reply(fmt.Sprintf(welcomeText, strings.TrimRight(examples.String(), "\n"), h.commands.HelpText()))
}

func (h *Handler) handleAsk(c *telegram.CommandContext) error {
	if strings.TrimSpace(c.Args) == "" {
		return c.Reply("Usage: /ask <question>")
	}
	return h.answer(c.Ctx, c.ChatID, c.Args)
}

func (h *Handler) handleAgents(c *telegram.CommandContext) error {
	return c.Reply(h.assistant.SystemInfo())
}

func (h *Handler) handleUsage(c *telegram.CommandContext) error {
	report, err := h.assistant.Usage(c.Ctx, SessionID(c.ChatID))
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("📊 Usage\n\n")
	if report.Session != nil {
		fmt.Fprintf(&b, "Your questions: %d total, %d in the last hour, %d in the last minute\n",
			report.Session.Total, report.Session.LastHour, report.Session.LastMinute)
	}
	fmt.Fprintf(&b, "All sessions: %d (%d active), %d questions\n",
		report.Totals.Sessions, report.Totals.ActiveSessions, report.Totals.Requests)
	return c.Reply(b.String())
}
