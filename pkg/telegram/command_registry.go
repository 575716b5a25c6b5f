package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// CommandContext contains all data for command execution
type CommandContext struct {
	Ctx        context.Context
	UserID     int64
	ChatID     int64
	Command    string
	Args       string
	RawMessage string
	Bot        Bot
}

// Reply sends text to the chat the command came from
func (c *CommandContext) Reply(text string) error {
	return c.Bot.SendMessage(c.ChatID, text)
}

// CommandHandler is a function that handles a command
type CommandHandler func(ctx *CommandContext) error

// CommandMiddleware wraps command handlers with additional logic
type CommandMiddleware func(next CommandHandler) CommandHandler

// CommandConfig defines a command registration
type CommandConfig struct {
	Name        string   // Primary command name (e.g., "agents")
	Aliases     []string // Alternative names
	Description string   // Help text
	Usage       string   // Usage example (e.g., "/ask <question>")
	Handler     CommandHandler
	Middleware  []CommandMiddleware // Command-specific middleware
	Hidden      bool                // Don't show in /help
}

// CommandRegistry manages command registration and routing
type CommandRegistry struct {
	commands   map[string]*CommandConfig // command name or alias -> config
	middleware []CommandMiddleware
	bot        Bot
	log        *logger.Logger
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry(bot Bot, log *logger.Logger) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*CommandConfig),
		bot:      bot,
		log:      log.With("component", "command_registry"),
	}
}

// Register registers a command and its aliases
func (cr *CommandRegistry) Register(config CommandConfig) error {
	if config.Name == "" {
		return errors.Wrap(errors.ErrInvalidInput, "command name is required")
	}
	if config.Handler == nil {
		return errors.Wrapf(errors.ErrInvalidInput, "command %s has no handler", config.Name)
	}

	cfg := &config
	cr.commands[strings.ToLower(config.Name)] = cfg
	for _, alias := range config.Aliases {
		cr.commands[strings.ToLower(alias)] = cfg
	}

	cr.log.Debugw("Registered command", "name", config.Name, "aliases", config.Aliases)
	return nil
}

// MustRegister registers a command and panics on error (for init-time registration)
func (cr *CommandRegistry) MustRegister(config CommandConfig) {
	if err := cr.Register(config); err != nil {
		panic(fmt.Sprintf("invalid command config: %v", err))
	}
}

// Use adds global middleware (applied to all commands)
func (cr *CommandRegistry) Use(middleware CommandMiddleware) {
	cr.middleware = append(cr.middleware, middleware)
}

// Handle routes a command to its handler
func (cr *CommandRegistry) Handle(ctx context.Context, userID, chatID int64, command, args, rawMessage string) error {
	command = strings.ToLower(strings.TrimSpace(command))

	config, exists := cr.commands[command]
	if !exists {
		cr.log.Debugw("Unknown command", "command", command, "chat_id", chatID)
		return cr.bot.SendMessage(chatID, fmt.Sprintf("❌ Unknown command: /%s\n\nUse /help to see available commands.", command))
	}

	cmdCtx := &CommandContext{
		Ctx:        ctx,
		UserID:     userID,
		ChatID:     chatID,
		Command:    config.Name,
		Args:       args,
		RawMessage: rawMessage,
		Bot:        cr.bot,
	}

	// command-specific middleware runs inside the global chain
	handler := config.Handler
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		handler = config.Middleware[i](handler)
	}
	for i := len(cr.middleware) - 1; i >= 0; i-- {
		handler = cr.middleware[i](handler)
	}

	if err := handler(cmdCtx); err != nil {
		cr.log.Errorw("Command execution failed",
			"command", config.Name,
			"chat_id", chatID,
			"error", err,
		)
		return cmdCtx.Reply("❌ Something went wrong. Please try again.")
	}
	return nil
}

// Commands returns the registered commands sorted by name, without aliases
func (cr *CommandRegistry) Commands(includeHidden bool) []*CommandConfig {
	seen := make(map[*CommandConfig]bool)
	out := make([]*CommandConfig, 0, len(cr.commands))
	for _, cfg := range cr.commands {
		if seen[cfg] || (cfg.Hidden && !includeHidden) {
			continue
		}
		seen[cfg] = true
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasCommand checks if command is registered
func (cr *CommandRegistry) HasCommand(command string) bool {
	_, exists := cr.commands[strings.ToLower(strings.TrimSpace(command))]
	return exists
}

// HelpText renders the visible commands as "/name - description" lines
func (cr *CommandRegistry) HelpText() string {
	var b strings.Builder
	for _, cfg := range cr.Commands(false) {
		usage := cfg.Usage
		if usage == "" {
			usage = "/" + cfg.Name
		}
		fmt.Fprintf(&b, "%s - %s\n", usage, cfg.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
