package market

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// QuoteResult is the latest price of a ticker.
type QuoteResult struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Currency         string  `json:"currency,omitempty"`
	Price            float64 `json:"price"`
	PreviousClose    float64 `json:"previous_close"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	Volume           string  `json:"volume"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low,omitempty"`
	Updated          string  `json:"updated"`
}

// NewGetStockQuoteTool returns a tool that fetches the latest quote.
func NewGetStockQuoteTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_stock_quote",
		"Get the real-time stock quote for a ticker symbol: price, daily change, volume and 52-week range",
		getStockQuote(deps),
		deps,
	).
		WithRetry(2, 500*time.Millisecond).
		WithStats().
		Build()
}

func getStockQuote(deps shared.Deps) shared.Handler[SymbolArgs, QuoteResult] {
	log := deps.Logger().With("tool", "get_stock_quote")

	return func(ctx context.Context, args SymbolArgs) (QuoteResult, error) {
		if !deps.HasMarketData() {
			return QuoteResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		symbol, err := normalize(args.Symbol)
		if err != nil {
			return QuoteResult{}, err
		}

		q, err := deps.MarketData.Quote(ctx, symbol)
		if err != nil {
			log.Warnw("Quote lookup failed", "symbol", symbol, "error", err)
			return QuoteResult{}, errors.Wrapf(err, "quote %s", symbol)
		}

		return QuoteResult{
			Symbol:           q.Symbol,
			Name:             q.Name,
			Currency:         q.Currency,
			Price:            shared.Float(q.Price),
			PreviousClose:    shared.Float(q.PreviousClose),
			Change:           shared.Float(q.Change),
			ChangePercent:    shared.Float(q.ChangePercent),
			Volume:           humanize.Comma(q.Volume),
			FiftyTwoWeekHigh: shared.Float(q.FiftyTwoWeekHigh),
			FiftyTwoWeekLow:  shared.Float(q.FiftyTwoWeekLow),
			Updated:          q.Timestamp.UTC().Format(time.RFC3339),
		}, nil
	}
}

// HistoryResult summarizes daily closes over a period.
type HistoryResult struct {
	Symbol        string  `json:"symbol"`
	Period        string  `json:"period"`
	CurrentPrice  float64 `json:"current_price"`
	StartPrice    float64 `json:"start_price"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	AverageVolume string  `json:"average_volume"`
	DataPoints    int     `json:"data_points"`
	From          string  `json:"from"`
	To            string  `json:"to"`
}

// NewGetPriceHistoryTool returns a tool that summarizes recent price history.
func NewGetPriceHistoryTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_price_history",
		"Summarize a ticker's price history over a period: start and current price, high, low, change and average volume",
		getPriceHistory(deps),
		deps,
	).
		WithRetry(2, 500*time.Millisecond).
		WithStats().
		Build()
}

func getPriceHistory(deps shared.Deps) shared.Handler[HistoryArgs, HistoryResult] {
	return func(ctx context.Context, args HistoryArgs) (HistoryResult, error) {
		if !deps.HasMarketData() {
			return HistoryResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		symbol, err := normalize(args.Symbol)
		if err != nil {
			return HistoryResult{}, err
		}

		h, err := deps.MarketData.History(ctx, symbol, args.Period)
		if err != nil {
			return HistoryResult{}, errors.Wrapf(err, "history %s", symbol)
		}

		return HistoryResult{
			Symbol:        h.Symbol,
			Period:        h.Period,
			CurrentPrice:  shared.Float(h.CurrentPrice),
			StartPrice:    shared.Float(h.StartPrice),
			High:          shared.Float(h.High),
			Low:           shared.Float(h.Low),
			Change:        shared.Float(h.Change),
			ChangePercent: shared.Float(h.ChangePercent),
			AverageVolume: humanize.Comma(h.AverageVolume),
			DataPoints:    h.DataPoints,
			From:          h.StartDate.Format(time.DateOnly),
			To:            h.EndDate.Format(time.DateOnly),
		}, nil
	}
}

// TrendingResult lists popular tickers.
type TrendingResult struct {
	Symbols []string `json:"symbols"`
}

// NewGetTrendingStocksTool returns a tool listing commonly followed tickers.
func NewGetTrendingStocksTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_trending_stocks",
		"List popular, widely followed stock tickers",
		getTrendingStocks(deps),
		deps,
	).Build()
}

func getTrendingStocks(deps shared.Deps) shared.Handler[shared.NoArgs, TrendingResult] {
	return func(_ context.Context, _ shared.NoArgs) (TrendingResult, error) {
		if !deps.HasMarketData() {
			return TrendingResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		return TrendingResult{Symbols: deps.MarketData.Trending()}, nil
	}
}
