package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.InDelta(t, 0.3, cfg.AI.Temperature, 1e-9)
	assert.True(t, cfg.AI.Enabled())

	assert.Equal(t, 2000, cfg.Guardrails.MaxInputLength)
	assert.Equal(t, 10, cfg.Guardrails.MaxPerMinute)
	assert.Equal(t, 100, cfg.Guardrails.MaxPerHour)
	assert.Equal(t, "memory", cfg.Guardrails.Backend)

	assert.Equal(t, 5, cfg.Orchestrator.MaxWorkers)
	assert.Equal(t, 3*time.Minute, cfg.Orchestrator.RequestTimeout)
	assert.Zero(t, cfg.Orchestrator.AgentTimeout)

	assert.Equal(t, 5*time.Minute, cfg.MarketData.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.MarketData.MinInterval)
	assert.Equal(t, 2*time.Second, cfg.Scraper.MinInterval)
	assert.Equal(t, "https://www.alphavantage.co", cfg.MarketData.AlphaVantageURL)

	assert.Equal(t, "127.0.0.1:7860", cfg.HTTP.Addr())
	assert.Equal(t, 3, cfg.Knowledge.TopK)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GUARDRAILS_MAX_PER_MINUTE", "3")
	t.Setenv("GUARDRAILS_MAX_PER_HOUR", "20")
	t.Setenv("GUARDRAILS_MAX_INPUT_LENGTH", "500")
	t.Setenv("ORCHESTRATOR_AGENT_TIMEOUT", "45s")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Guardrails.MaxPerMinute)
	assert.Equal(t, 20, cfg.Guardrails.MaxPerHour)
	assert.Equal(t, 500, cfg.Guardrails.MaxInputLength)
	assert.Equal(t, 45*time.Second, cfg.Orchestrator.AgentTimeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr())
}

func TestLoad_InvalidLimits(t *testing.T) {
	t.Setenv("GUARDRAILS_MAX_PER_MINUTE", "50")
	t.Setenv("GUARDRAILS_MAX_PER_HOUR", "10")
	t.Setenv("GUARDRAILS_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "multiple errors (2)")
}
