package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"finassist/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	MarketData    MarketDataConfig
	News          NewsConfig
	Scraper       ScraperConfig
	Guardrails    GuardrailsConfig
	Orchestrator  OrchestratorConfig
	Knowledge     KnowledgeConfig
	Workers       WorkersConfig
	HTTP          HTTPConfig
	Redis         RedisConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"finassist"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type AIConfig struct {
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	BaseURL        string        `envconfig:"OPENAI_BASE_URL"`
	Model          string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	Temperature    float64       `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	MaxTokens      int           `envconfig:"LLM_MAX_TOKENS" default:"2048"`
	RequestTimeout time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"60s"`
	EmbeddingModel string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	RateLimitRPM   float64       `envconfig:"AI_RATE_LIMIT_RPM" default:"500"`
	RateLimitBurst int           `envconfig:"AI_RATE_LIMIT_BURST" default:"50"`
}

// Enabled reports whether an LLM provider can be constructed
func (c AIConfig) Enabled() bool {
	return c.OpenAIKey != ""
}

type MarketDataConfig struct {
	AlphaVantageKey string        `envconfig:"ALPHA_VANTAGE_API_KEY"`
	AlphaVantageURL string        `envconfig:"ALPHA_VANTAGE_BASE_URL" default:"https://www.alphavantage.co"`
	YahooBaseURL    string        `envconfig:"YAHOO_FINANCE_BASE_URL" default:"https://query1.finance.yahoo.com"`
	CacheTTL        time.Duration `envconfig:"MARKET_DATA_CACHE_TTL" default:"5m"`
	CacheSize       int           `envconfig:"MARKET_DATA_CACHE_SIZE" default:"512"`
	MinInterval     time.Duration `envconfig:"MARKET_DATA_MIN_INTERVAL" default:"3s"`
	Timeout         time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"10s"`
}

type NewsConfig struct {
	APIKey  string        `envconfig:"NEWS_API_KEY"`
	BaseURL string        `envconfig:"NEWS_API_BASE_URL" default:"https://newsapi.org"`
	Timeout time.Duration `envconfig:"NEWS_API_TIMEOUT" default:"10s"`
}

type ScraperConfig struct {
	InvestopediaURL string        `envconfig:"SCRAPER_INVESTOPEDIA_URL" default:"https://www.investopedia.com"`
	MinInterval     time.Duration `envconfig:"SCRAPER_MIN_INTERVAL" default:"2s"` // per domain
	Timeout         time.Duration `envconfig:"SCRAPER_TIMEOUT" default:"10s"`
}

type GuardrailsConfig struct {
	MaxInputLength int    `envconfig:"GUARDRAILS_MAX_INPUT_LENGTH" default:"2000"`
	MaxPerMinute   int    `envconfig:"GUARDRAILS_MAX_PER_MINUTE" default:"10"`
	MaxPerHour     int    `envconfig:"GUARDRAILS_MAX_PER_HOUR" default:"100"`
	IntentCheck    bool   `envconfig:"GUARDRAILS_INTENT_CHECK" default:"false"`
	Backend        string `envconfig:"GUARDRAILS_BACKEND" default:"memory"` // memory|redis
}

type OrchestratorConfig struct {
	MaxWorkers     int           `envconfig:"ORCHESTRATOR_MAX_WORKERS" default:"5"`
	AgentTimeout   time.Duration `envconfig:"ORCHESTRATOR_AGENT_TIMEOUT"` // zero keeps per-agent defaults
	Sequential     bool          `envconfig:"ORCHESTRATOR_SEQUENTIAL" default:"false"`
	RequestTimeout time.Duration `envconfig:"ASSISTANT_REQUEST_TIMEOUT" default:"3m"`
}

type KnowledgeConfig struct {
	Enabled bool   `envconfig:"KNOWLEDGE_BASE_ENABLED" default:"false"`
	Path    string `envconfig:"KNOWLEDGE_BASE_PATH" default:"./knowledge_base"` // empty keeps the index in memory
	TopK    int    `envconfig:"KNOWLEDGE_BASE_TOP_K" default:"3"`

	// Embedder is auto, openai, ollama or hash. Auto uses OpenAI when a key
	// is set and the offline hashing embedder otherwise.
	Embedder    string `envconfig:"KNOWLEDGE_BASE_EMBEDDER" default:"auto"`
	OllamaURL   string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434/api"`
	OllamaModel string `envconfig:"OLLAMA_EMBED_MODEL" default:"nomic-embed-text"`
}

type WorkersConfig struct {
	Enabled              bool          `envconfig:"WORKERS_ENABLED" default:"true"`
	IndexRefreshInterval time.Duration `envconfig:"WORKERS_INDEX_REFRESH_INTERVAL" default:"5m"`
	UsageReportInterval  time.Duration `envconfig:"WORKERS_USAGE_REPORT_INTERVAL" default:"15m"`
}

type HTTPConfig struct {
	Host         string        `envconfig:"HTTP_HOST" default:"127.0.0.1"`
	Port         int           `envconfig:"HTTP_PORT" default:"7860"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"4m"`
	// CORSOrigins enables CORS for the listed origins; empty keeps it off.
	CORSOrigins []string `envconfig:"HTTP_CORS_ORIGINS"`
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string `envconfig:"HTTP_TRUSTED_PROXIES"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type TelegramConfig struct {
	BotToken   string `envconfig:"TELEGRAM_BOT_TOKEN"`
	WebhookURL string `envconfig:"TELEGRAM_WEBHOOK_URL"` // empty selects long polling
	Debug      bool   `envconfig:"TELEGRAM_DEBUG" default:"false"`
}

// Enabled reports whether the Telegram channel should start
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	var m errors.MultiError

	if c.Guardrails.MaxInputLength <= 0 {
		m.Add(errors.NewValidationError("GUARDRAILS_MAX_INPUT_LENGTH", "must be positive", c.Guardrails.MaxInputLength))
	}
	if c.Guardrails.MaxPerMinute <= 0 {
		m.Add(errors.NewValidationError("GUARDRAILS_MAX_PER_MINUTE", "must be positive", c.Guardrails.MaxPerMinute))
	}
	if c.Guardrails.MaxPerHour < c.Guardrails.MaxPerMinute {
		m.Add(errors.NewValidationError("GUARDRAILS_MAX_PER_HOUR", "must be >= per-minute limit", c.Guardrails.MaxPerHour))
	}
	switch c.Guardrails.Backend {
	case "memory", "redis":
	default:
		m.Add(errors.NewValidationError("GUARDRAILS_BACKEND", "must be memory or redis", c.Guardrails.Backend))
	}
	if c.Orchestrator.MaxWorkers <= 0 {
		m.Add(errors.NewValidationError("ORCHESTRATOR_MAX_WORKERS", "must be positive", c.Orchestrator.MaxWorkers))
	}
	if c.Workers.Enabled && (c.Workers.IndexRefreshInterval <= 0 || c.Workers.UsageReportInterval <= 0) {
		m.Add(errors.NewValidationError("WORKERS_*_INTERVAL", "must be positive", nil))
	}
	if c.Knowledge.TopK <= 0 {
		m.Add(errors.NewValidationError("KNOWLEDGE_BASE_TOP_K", "must be positive", c.Knowledge.TopK))
	}

	return m.ToError()
}
