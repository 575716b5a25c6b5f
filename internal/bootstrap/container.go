package bootstrap

import (
	"context"
	"sync"

	"finassist/internal/adapters/ai"
	"finassist/internal/adapters/config"
	"finassist/internal/adapters/marketdata"
	"finassist/internal/adapters/news"
	redisclient "finassist/internal/adapters/redis"
	"finassist/internal/adapters/scraper"
	telegram "finassist/internal/adapters/telegram"
	"finassist/internal/agents"
	"finassist/internal/api"
	"finassist/internal/api/health"
	"finassist/internal/assistant"
	"finassist/internal/guardrails"
	"finassist/internal/knowledge"
	"finassist/internal/router"
	"finassist/internal/tools"
	"finassist/internal/workers"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	tg "finassist/pkg/telegram"
	"finassist/pkg/telegram/adapters/tgbotapi"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure (optional, only with the redis backend)
	Redis *redisclient.Client

	// External Adapters
	Adapters *Adapters

	// Business Logic
	Business *Business

	// Application Layer
	Application *Application

	// Background Processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups all external adapters
type Adapters struct {
	AI         *ai.Providers
	MarketData *marketdata.Client
	News       *news.Client
	Scraper    *scraper.Scraper
	Knowledge  *knowledge.Base // nil when disabled
}

// Business groups the assistant pipeline
type Business struct {
	ToolRegistry  *tools.Registry
	AgentFactory  *agents.Factory
	AgentRegistry *agents.Registry
	Orchestrator  *agents.Orchestrator
	Guardrails    *guardrails.Filter
	Router        *router.Router
	Assistant     *assistant.Assistant
}

// Application groups the user-facing channels
type Application struct {
	HTTPServer      *api.Server
	HealthHandler   *health.Handler
	TelegramBot     *tgbotapi.Bot // nil when TELEGRAM_BOT_TOKEN is unset
	TelegramHandler *telegram.Handler
	TelegramWebhook *tg.WebhookHandler // nil in polling mode
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Business:    &Business{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// InitAssistant builds everything needed to answer questions. The CLI
// commands stop here; serve continues with InitServer.
func (c *Container) InitAssistant() error {
	steps := []func() error{
		c.InitConfig,
		c.InitInfrastructure,
		c.InitAdapters,
		c.InitBusiness,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// InitServer builds the HTTP server, the Telegram bot and the workers.
func (c *Container) InitServer() error {
	if err := c.InitApplication(); err != nil {
		return err
	}
	c.InitBackground()
	return nil
}

// Start starts the channels and background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if c.Application.HTTPServer == nil {
		return errors.Wrap(errors.ErrNotConfigured, "InitServer must run before Start")
	}

	// Start HTTP server
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	// Start Telegram bot (polling loop, or idle wait in webhook mode)
	if bot := c.Application.TelegramBot; bot != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := bot.Start(c.Context); err != nil {
				c.Log.Errorw("Telegram bot stopped with error", "error", err)
			}
		}()
	}

	// Start workers
	if s := c.Background.WorkerScheduler; s != nil {
		if err := s.Start(c.Context); err != nil {
			return errors.Wrap(err, "failed to start workers")
		}
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	if c.Log == nil {
		c.Cancel()
		return
	}
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Application.TelegramBot,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// GetMetrics returns counts for observability
func (c *Container) GetMetrics() map[string]interface{} {
	m := map[string]interface{}{}
	if c.Business.ToolRegistry != nil {
		m["tools"] = len(c.Business.ToolRegistry.List())
	}
	if c.Business.AgentRegistry != nil {
		m["agents"] = len(c.Business.AgentRegistry.List())
	}
	return m
}
