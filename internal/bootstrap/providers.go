package bootstrap

import (
	"context"
	"time"

	chromem "github.com/philippgille/chromem-go"
	goredis "github.com/redis/go-redis/v9"

	"finassist/internal/adapters/ai"
	"finassist/internal/adapters/config"
	errnoop "finassist/internal/adapters/errors/noop"
	"finassist/internal/adapters/errors/sentry"
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
	"finassist/internal/metrics"
	"finassist/internal/router"
	"finassist/internal/tools"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	tg "finassist/pkg/telegram"
	"finassist/pkg/telegram/adapters/tgbotapi"
	"finassist/pkg/templates"
)

const knowledgeOpenTimeout = 2 * time.Minute

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// InitConfig loads configuration and initializes logger
func (c *Container) InitConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		return errors.Wrap(err, "failed to init logger")
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
	return nil
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// InitInfrastructure connects Redis when the guardrails backend needs it
func (c *Container) InitInfrastructure() error {
	if c.Config.Guardrails.Backend != "redis" {
		c.Log.Info("Using in-memory session limits")
		return nil
	}

	c.Log.Infow("Connecting to Redis...", "addr", c.Config.Redis.Addr())
	client, err := redisclient.NewClient(c.Context, c.Config.Redis)
	if err != nil {
		return errors.Wrap(err, "failed to connect redis")
	}
	c.Redis = client
	c.Log.Info("✓ Redis connected")
	return nil
}

// ========================================
// Phase 3: External Adapters
// ========================================

// InitAdapters builds the LLM clients, data providers and the knowledge base
func (c *Container) InitAdapters() error {
	providers, err := ai.BuildProviders(c.Config.AI, c.redisRaw())
	if err != nil {
		return errors.Wrap(err, "failed to build LLM providers")
	}
	c.Adapters.AI = providers
	c.Log.Infow("✓ LLM provider ready", "provider", providers.Chat.Name(), "model", c.Config.AI.Model)

	c.Adapters.MarketData = marketdata.NewClient(c.Config.MarketData)
	c.Adapters.News = news.NewClient(c.Config.News)
	c.Adapters.Scraper = scraper.New(c.Config.Scraper)

	if c.Config.Knowledge.Enabled {
		kb, err := provideKnowledgeBase(c.Context, c.Config.Knowledge, providers, c.Log)
		if err != nil {
			// the Q&A agent still answers from the model without retrieval
			c.Log.Warnw("Knowledge base unavailable", "error", err)
		} else {
			c.Adapters.Knowledge = kb
		}
	}

	c.Log.Info("✓ Adapters initialized")
	return nil
}

// ========================================
// Phase 4: Business Logic
// ========================================

// InitBusiness builds tools, agents, the orchestrator, guardrails, the
// router and the assistant pipeline
func (c *Container) InitBusiness() error {
	registry, err := provideToolRegistry(c.Adapters, c.Log)
	if err != nil {
		return err
	}
	c.Business.ToolRegistry = registry

	usage := agents.NewUsageTracker()
	chat := c.Adapters.AI.Chat

	factory, err := agents.NewFactory(agents.FactoryDeps{
		Provider:        chat,
		Model:           c.Config.AI.Model,
		ToolRegistry:    registry,
		Templates:       templates.Get(),
		Usage:           usage,
		TimeoutOverride: c.Config.Orchestrator.AgentTimeout,
	})
	if err != nil {
		return errors.Wrap(err, "create agent factory")
	}
	c.Business.AgentFactory = factory

	c.Business.AgentRegistry, err = factory.CreateDefaultRegistry()
	if err != nil {
		return errors.Wrap(err, "create agent registry")
	}

	c.Business.Orchestrator = agents.NewOrchestrator(
		c.Business.AgentRegistry,
		agents.NewLLMSynthesizer(chat, templates.Get()),
		usage,
		agents.OrchestratorConfig{
			MaxWorkers:   c.Config.Orchestrator.MaxWorkers,
			AgentTimeout: c.Config.Orchestrator.AgentTimeout,
			Sequential:   c.Config.Orchestrator.Sequential,
		},
	)

	c.Business.Guardrails = provideGuardrails(c.Config.Guardrails, chat, c.Redis, c.Log)
	if err := metrics.RegisterSessionCollector(c.Business.Guardrails); err != nil {
		c.Log.Warnw("Failed to register session collector", "error", err)
	}

	c.Business.Router = router.New(router.NewLLMClassifier(chat, templates.Get()))

	c.Business.Assistant = assistant.New(
		c.Business.Guardrails,
		c.Business.Router,
		c.Business.Orchestrator,
		c.ErrorTracker,
		assistant.Config{RequestTimeout: c.Config.Orchestrator.RequestTimeout},
	)

	c.Log.Infow("✓ Assistant initialized",
		"tools", len(registry.List()),
		"agents", len(c.Business.AgentRegistry.List()),
	)
	return nil
}

// ========================================
// Phase 5: Application Layer
// ========================================

// InitApplication builds health checks, the Telegram bot and the HTTP server
func (c *Container) InitApplication() error {
	c.Application.HealthHandler = provideHealthHandler(c)

	if c.Config.Telegram.Enabled() {
		if err := c.initTelegram(); err != nil {
			return err
		}
	} else {
		c.Log.Info("Telegram bot disabled (TELEGRAM_BOT_TOKEN not set)")
	}

	server, err := api.NewServer(api.ServerConfig{
		Host:            c.Config.HTTP.Host,
		Port:            c.Config.HTTP.Port,
		ServiceName:     c.Config.App.Name,
		Version:         c.Config.App.Version,
		ReadTimeout:     c.Config.HTTP.ReadTimeout,
		WriteTimeout:    c.Config.HTTP.WriteTimeout,
		Debug:           c.Config.App.Debug,
		CORSOrigins:     c.Config.HTTP.CORSOrigins,
		TrustedProxies:  c.Config.HTTP.TrustedProxies,
		TelegramWebhook: c.Application.TelegramWebhook,
	}, c.Business.Assistant, c.Application.HealthHandler, c.Log)
	if err != nil {
		return errors.Wrap(err, "create HTTP server")
	}
	c.Application.HTTPServer = server

	c.Log.Info("✓ Application layer initialized")
	return nil
}

func (c *Container) initTelegram() error {
	cfg := c.Config.Telegram
	webhookMode := cfg.WebhookURL != ""

	bot, err := tgbotapi.NewBot(tgbotapi.Config{
		Token:       cfg.BotToken,
		Debug:       cfg.Debug,
		Timeout:     60,
		WebhookMode: webhookMode,
	}, c.Log)
	if err != nil {
		return errors.Wrap(err, "create Telegram bot")
	}

	handler := telegram.NewHandler(bot, c.Business.Assistant, c.Log)
	bot.SetHandler(handler.HandleUpdate)

	if webhookMode {
		if err := bot.SetWebhook(cfg.WebhookURL); err != nil {
			return errors.Wrap(err, "set Telegram webhook")
		}
		c.Application.TelegramWebhook = tg.NewWebhookHandler(handler.HandleUpdate, c.Log)
		c.Log.Infow("✓ Telegram webhook mode enabled", "url", cfg.WebhookURL)
	} else {
		// getUpdates is refused while a webhook is registered
		if err := bot.DeleteWebhook(false); err != nil {
			c.Log.Warnw("Failed to delete Telegram webhook", "error", err)
		}
		c.Log.Info("✓ Telegram polling mode enabled")
	}

	c.Application.TelegramBot = bot
	c.Application.TelegramHandler = handler
	return nil
}

// ========================================
// Phase 6: Background Processing
// ========================================

// InitBackground registers background workers
func (c *Container) InitBackground() {
	c.Background.WorkerScheduler = provideWorkers(c.Config.Workers, c.Adapters, c.Business)
	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

// redisRaw returns the go-redis client, or nil without Redis.
func (c *Container) redisRaw() *goredis.Client {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Client()
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Debug("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKnowledgeBase(ctx context.Context, cfg config.KnowledgeConfig, providers *ai.Providers, log *logger.Logger) (*knowledge.Base, error) {
	ctx, cancel := context.WithTimeout(ctx, knowledgeOpenTimeout)
	defer cancel()

	var openAI chromem.EmbeddingFunc
	if providers != nil && providers.Embedding != nil {
		openAI = providers.Embedding.GenerateEmbedding
	}
	name, embed, err := knowledge.NewEmbedder(knowledge.EmbedderConfig{
		Kind:        cfg.Embedder,
		OllamaURL:   cfg.OllamaURL,
		OllamaModel: cfg.OllamaModel,
	}, openAI)
	if err != nil {
		return nil, err
	}
	kcfg := knowledge.Config{Path: cfg.Path, TopK: cfg.TopK, Embedder: name, Embed: embed}

	log.Infow("Opening knowledge base...", "path", cfg.Path, "embedder", kcfg.Embedder)
	return knowledge.Open(ctx, kcfg)
}

func provideToolRegistry(adapters *Adapters, log *logger.Logger) (*tools.Registry, error) {
	deps := shared.Deps{
		MarketData:  adapters.MarketData,
		News:        adapters.News,
		Terms:       adapters.Scraper,
		ToolTimeout: agents.MinTimeoutPerTool(),
		Log:         log,
	}
	// a typed nil would make HasKnowledge report true
	if adapters.Knowledge != nil {
		deps.Knowledge = adapters.Knowledge
	}

	registry, err := tools.NewDefaultRegistry(deps)
	if err != nil {
		return nil, errors.Wrap(err, "build tool registry")
	}
	log.Infof("✓ Registered %d tools", len(registry.List()))
	return registry, nil
}

func provideGuardrails(cfg config.GuardrailsConfig, chat ai.ChatProvider, redisClient *redisclient.Client, log *logger.Logger) *guardrails.Filter {
	limits := guardrails.Limits{PerMinute: cfg.MaxPerMinute, PerHour: cfg.MaxPerHour}

	var limiter guardrails.SessionLimiter
	if redisClient != nil {
		limiter = guardrails.NewRedisLimiter(redisClient.Client(), limits, nil)
	} else {
		limiter = guardrails.NewMemoryLimiter(limits, nil)
	}

	var opts []guardrails.Option
	if cfg.IntentCheck {
		opts = append(opts, guardrails.WithIntentChecker(guardrails.NewIntentChecker(chat, templates.Get())))
		log.Info("✓ Model-based intent check enabled")
	}

	return guardrails.NewFilter(guardrails.Config{
		MaxInputLength: cfg.MaxInputLength,
		Limits:         limits,
	}, limiter, opts...)
}

func provideHealthHandler(c *Container) *health.Handler {
	h := health.New(c.Log, c.Config.App.Name, c.Config.App.Version).
		Register("llm", health.ConfiguredCheck(c.Config.AI.Enabled(), "OPENAI_API_KEY"), true)

	if c.Redis != nil {
		h.Register("redis", health.RedisCheck(c.Redis.Client()), true)
	}
	if c.Config.Knowledge.Enabled {
		h.Register("knowledge_base", health.ConfiguredCheck(c.Adapters.Knowledge != nil, "knowledge base"), false)
	}
	if c.Config.MarketData.AlphaVantageKey == "" {
		h.Register("alpha_vantage", health.ConfiguredCheck(false, "ALPHA_VANTAGE_API_KEY"), false)
	}
	if c.Config.News.APIKey == "" {
		h.Register("news_api", health.ConfiguredCheck(false, "NEWS_API_KEY"), false)
	}
	return h
}
