// Package news fetches financial headlines from NewsAPI, with sample
// articles when no key is configured or the API fails.
package news

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finassist/internal/adapters/config"
	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

const (
	providerName   = "newsapi"
	financeDomains = "bloomberg.com,cnbc.com,reuters.com,wsj.com,marketwatch.com"

	DefaultMarketLimit = 10
	DefaultStockLimit  = 5
	maxLimit           = 20
)

// Category queries for MarketNews. Unknown categories use "general".
var categoryQueries = map[string]string{
	"general": "stock market OR financial markets",
	"stocks":  "stock market OR equities OR shares",
	"crypto":  "cryptocurrency OR bitcoin OR ethereum",
	"economy": "economy OR inflation OR interest rates",
}

// Article is one news item.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Category    string    `json:"category,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
	Sample      bool      `json:"sample,omitempty"`
}

// Provider is the news surface used by the market tools.
type Provider interface {
	MarketNews(ctx context.Context, category string, limit int) ([]Article, error)
	StockNews(ctx context.Context, symbol string, limit int) ([]Article, error)
}

// Client is a NewsAPI client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
	log        *logger.Logger
}

var _ Provider = (*Client)(nil)

// NewClient creates a news client. Without an API key every call returns
// sample articles.
func NewClient(cfg config.NewsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		log:        logger.Get().With("component", "news"),
	}
}

// MarketNews returns the latest headlines for a category
// (general, stocks, crypto, economy).
func (c *Client) MarketNews(ctx context.Context, category string, limit int) ([]Article, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	query, ok := categoryQueries[category]
	if !ok {
		category = "general"
		query = categoryQueries[category]
	}
	limit = clampLimit(limit, DefaultMarketLimit)

	if c.apiKey == "" {
		c.log.Debugw("NewsAPI key not configured, returning sample news", "category", category)
		return sampleMarketNews(category, limit, c.now()), nil
	}

	articles, err := c.everything(ctx, query, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.log.Warnw("NewsAPI request failed, returning sample news", "category", category, "error", err)
		return sampleMarketNews(category, limit, c.now()), nil
	}
	for i := range articles {
		articles[i].Category = category
	}
	return articles, nil
}

// StockNews returns headlines mentioning symbol.
func (c *Client) StockNews(ctx context.Context, symbol string, limit int) ([]Article, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidSymbol, "empty symbol")
	}
	limit = clampLimit(limit, DefaultStockLimit)

	if c.apiKey == "" {
		return sampleStockNews(symbol, limit, c.now()), nil
	}

	articles, err := c.everything(ctx, symbol, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.log.Warnw("NewsAPI request failed, returning sample news", "symbol", symbol, "error", err)
		return sampleStockNews(symbol, limit, c.now()), nil
	}
	for i := range articles {
		articles[i].Symbol = symbol
	}
	return articles, nil
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (c *Client) everything(ctx context.Context, query string, limit int) ([]Article, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("q", query)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("domains", financeDomains)

	start := time.Now()
	resp, err := c.get(ctx, c.baseURL+"/v2/everything?"+q.Encode())
	metrics.RecordProviderCall(providerName, "everything", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if len(out) == limit {
			break
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		out = append(out, Article{
			Title:       orNA(a.Title),
			Description: orNA(a.Description),
			Source:      orNA(a.Source.Name),
			URL:         a.URL,
			PublishedAt: published,
		})
	}
	c.log.Infow("Fetched news articles", "query", query, "count", len(out))
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*everythingResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "finassist/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	var body everythingResponse
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = json.Unmarshal(raw, &body)
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "status %d: %s", resp.StatusCode, body.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	if body.Status == "error" {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "%s: %s", body.Code, body.Message)
	}
	return &body, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
