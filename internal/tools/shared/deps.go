package shared

import (
	"context"
	"time"

	"finassist/internal/adapters/marketdata"
	"finassist/internal/adapters/news"
	"finassist/internal/adapters/scraper"
	"finassist/internal/knowledge"
	"finassist/pkg/logger"
)

// DefaultToolTimeout bounds a tool call when Deps.ToolTimeout is unset.
const DefaultToolTimeout = 15 * time.Second

// TermLookup resolves financial terms to definitions.
type TermLookup interface {
	LookupTerm(ctx context.Context, term string) (*scraper.TermDefinition, error)
}

// Deps bundles dependencies required by concrete tool implementations.
type Deps struct {
	MarketData marketdata.Provider
	News       news.Provider
	Terms      TermLookup
	Knowledge  knowledge.Searcher

	// ToolTimeout is the default per-call deadline.
	ToolTimeout time.Duration
	Log         *logger.Logger
}

// HasMarketData reports whether the market data provider is available
func (d Deps) HasMarketData() bool {
	return d.MarketData != nil
}

// HasNews reports whether the news provider is available
func (d Deps) HasNews() bool {
	return d.News != nil
}

// HasTerms reports whether term lookups are available
func (d Deps) HasTerms() bool {
	return d.Terms != nil
}

// HasKnowledge reports whether the knowledge base is loaded
func (d Deps) HasKnowledge() bool {
	return d.Knowledge != nil
}

// Logger returns d.Log, or the global logger when unset.
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}

func (d Deps) toolTimeout() time.Duration {
	if d.ToolTimeout > 0 {
		return d.ToolTimeout
	}
	return DefaultToolTimeout
}
