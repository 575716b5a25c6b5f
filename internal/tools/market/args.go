// Package market exposes quotes, fundamentals, indices and news as agent
// tools.
package market

import (
	"finassist/internal/adapters/marketdata"
	"finassist/pkg/errors"
)

// SymbolArgs is the argument of single-ticker tools.
type SymbolArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol, for example AAPL or ^GSPC"`
}

// HistoryArgs selects a ticker and a lookback period.
type HistoryArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol"`
	Period string `json:"period,omitempty" jsonschema:"Lookback period: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd or max (default 1mo)"`
}

// NewsArgs selects articles about one ticker.
type NewsArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Number of articles, 1 to 20 (default 5)"`
}

// MarketNewsArgs selects general market news.
type MarketNewsArgs struct {
	Category string `json:"category,omitempty" jsonschema:"One of general, stocks, crypto, economy (default general)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Number of articles, 1 to 20 (default 10)"`
}

func normalize(symbol string) (string, error) {
	sym, err := marketdata.NormalizeSymbol(symbol)
	if err != nil {
		return "", errors.NewValidationError("symbol", "not a valid ticker symbol", symbol)
	}
	return sym, nil
}
