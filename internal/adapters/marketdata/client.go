// Package marketdata fetches quotes, price history and company fundamentals
// from Yahoo Finance and Alpha Vantage.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"finassist/internal/adapters/config"
	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

const (
	providerYahoo        = "yahoo"
	providerAlphaVantage = "alphavantage"
	userAgent            = "Mozilla/5.0 (compatible; finassist/1.0)"
	maxDescriptionLength = 500
)

var symbolPattern = regexp.MustCompile(`^[\^A-Z0-9][A-Z0-9.\-=]{0,11}$`)

// Client implements Provider. Quotes and company info are cached for the
// configured TTL and all outbound calls share one minimum-interval limiter.
type Client struct {
	yahooURL   string
	avURL      string
	avKey      string
	httpClient *http.Client
	limiter    *rate.Limiter
	quotes     *expirable.LRU[string, *Quote]
	companies  *expirable.LRU[string, *CompanyInfo]
	now        func() time.Time
	log        *logger.Logger
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the clock used for quote timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a market data client.
func NewClient(cfg config.MarketDataConfig, opts ...Option) *Client {
	size := cfg.CacheSize
	if size <= 0 {
		size = 512
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	c := &Client{
		yahooURL:   strings.TrimRight(cfg.YahooBaseURL, "/"),
		avURL:      strings.TrimRight(cfg.AlphaVantageURL, "/"),
		avKey:      cfg.AlphaVantageKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		quotes:     expirable.NewLRU[string, *Quote](size, nil, ttl),
		companies:  expirable.NewLRU[string, *CompanyInfo](size, nil, ttl),
		now:        time.Now,
		log:        logger.Get().With("component", "marketdata"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeSymbol upper-cases and validates a ticker.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", errors.Wrapf(errors.ErrInvalidSymbol, "%q", symbol)
	}
	return s, nil
}

// Quote returns the latest price for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if q, ok := c.quotes.Get(sym); ok {
		metrics.RecordCacheHit(providerYahoo, "quote")
		c.log.Debugw("Returning cached quote", "symbol", sym)
		return q, nil
	}

	chart, err := c.fetchChart(ctx, sym, "5d")
	if err != nil {
		return nil, err
	}

	q, err := chart.quote(sym, c.now())
	if err != nil {
		return nil, err
	}

	c.quotes.Add(sym, q)
	c.log.Infow("Fetched quote", "symbol", sym, "price", q.Price.String())
	return q, nil
}

// History summarizes daily closes of symbol over period (1d, 5d, 1mo, ...).
func (c *Client) History(ctx context.Context, symbol, period string) (*History, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "1mo"
	}
	if !ValidPeriods[period] {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported period %q", period)
	}

	chart, err := c.fetchChart(ctx, sym, period)
	if err != nil {
		return nil, err
	}
	return chart.history(sym, period)
}

// CompanyInfo returns fundamentals from Alpha Vantage when a key is configured,
// falling back to the Yahoo chart metadata.
func (c *Client) CompanyInfo(ctx context.Context, symbol string) (*CompanyInfo, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if info, ok := c.companies.Get(sym); ok {
		metrics.RecordCacheHit(providerAlphaVantage, "overview")
		return info, nil
	}

	var info *CompanyInfo
	if c.avKey != "" {
		info, err = c.fetchOverview(ctx, sym)
		if err != nil {
			c.log.Warnw("Alpha Vantage overview failed, falling back to Yahoo", "symbol", sym, "error", err)
		}
	}

	if info == nil {
		chart, err := c.fetchChart(ctx, sym, "5d")
		if err != nil {
			return nil, err
		}
		info = chart.companyInfo(sym)
	}

	c.companies.Add(sym, info)
	return info, nil
}

// Indices returns the major US indices in MajorIndices order. Indices that
// fail are skipped; an error is returned only when all fail.
func (c *Client) Indices(ctx context.Context) ([]IndexQuote, error) {
	out := make([]IndexQuote, 0, len(MajorIndices))
	var lastErr error

	for _, idx := range MajorIndices {
		q, err := c.Quote(ctx, idx.Symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "indices")
			}
			c.log.Warnw("Index quote failed", "symbol", idx.Symbol, "error", err)
			lastErr = err
			continue
		}
		out = append(out, IndexQuote{
			Name:          idx.Name,
			Symbol:        idx.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}

	if len(out) == 0 {
		return nil, errors.Wrap(lastErr, "no index data")
	}
	return out, nil
}

// Trending returns a fixed list of widely followed tickers.
func (c *Client) Trending() []string {
	out := make([]string, len(TrendingSymbols))
	copy(out, TrendingSymbols)
	return out
}

func (c *Client) fetchChart(ctx context.Context, symbol, period string) (*chartResult, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.yahooURL, url.PathEscape(symbol), q.Encode())

	var resp chartResponse
	start := time.Now()
	status, err := c.getJSON(ctx, endpoint, &resp)
	metrics.RecordProviderCall(providerYahoo, "chart", time.Since(start), err)

	if status == http.StatusNotFound {
		return nil, errors.Wrapf(errors.ErrNotFound, "symbol %s", symbol)
	}
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrNoData, "%s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "symbol %s", symbol)
	}
	return &resp.Chart.Result[0], nil
}

func (c *Client) fetchOverview(ctx context.Context, symbol string) (*CompanyInfo, error) {
	q := url.Values{}
	q.Set("function", "OVERVIEW")
	q.Set("symbol", symbol)
	q.Set("apikey", c.avKey)
	endpoint := c.avURL + "/query?" + q.Encode()

	var ov overviewResponse
	start := time.Now()
	_, err := c.getJSON(ctx, endpoint, &ov)
	metrics.RecordProviderCall(providerAlphaVantage, "overview", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if ov.Note != "" || ov.Information != "" {
		return nil, errors.Wrapf(errors.ErrRateLimitExceeded, "alpha vantage: %s%s", ov.Note, ov.Information)
	}
	if ov.Symbol == "" {
		return nil, errors.Wrapf(errors.ErrNoData, "alpha vantage overview for %s", symbol)
	}
	return ov.companyInfo(), nil
}

// getJSON waits on the shared limiter, performs a GET and decodes the body.
// The HTTP status is returned even when decoding fails.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "market data rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrProviderUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, errors.Wrapf(errors.ErrProviderUnavailable, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "failed to decode response")
	}
	return resp.StatusCode, nil
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func percentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100)).Round(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
