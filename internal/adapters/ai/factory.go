package ai

import (
	"github.com/redis/go-redis/v9"

	"finassist/internal/adapters/config"
	"finassist/pkg/errors"
)

// Providers bundles the model-facing clients built from configuration.
type Providers struct {
	Chat      ChatProvider
	Embedding *EmbeddingService
}

// BuildProviders constructs the chat provider and embedder from config.
// redisClient is optional: with it, the LLM rate limit is shared across
// instances; without it each process limits itself.
func BuildProviders(cfg config.AIConfig, redisClient *redis.Client) (*Providers, error) {
	if !cfg.Enabled() {
		return nil, errors.Wrap(errors.ErrNotConfigured, "OPENAI_API_KEY is not set")
	}

	limiter := NewRateLimiterFactory(redisClient).Create(ProviderNameOpenAI, RateLimitConfig{
		ReqPerMinute: cfg.RateLimitRPM,
		Burst:        cfg.RateLimitBurst,
	})

	openaiCfg := OpenAIConfig{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
		MaxRetries:  2,
	}

	chat, err := NewOpenAIProvider(openaiCfg, limiter)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbeddingService(openaiCfg, cfg.EmbeddingModel, limiter)
	if err != nil {
		return nil, err
	}

	return &Providers{Chat: chat, Embedding: embedder}, nil
}
