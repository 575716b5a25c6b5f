package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider is the market data surface used by the market tools.
type Provider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
	History(ctx context.Context, symbol, period string) (*History, error)
	CompanyInfo(ctx context.Context, symbol string) (*CompanyInfo, error)
	Indices(ctx context.Context) ([]IndexQuote, error)
	Trending() []string
}

// Quote is the latest price of a ticker.
type Quote struct {
	Symbol           string
	Name             string
	Currency         string
	Price            decimal.Decimal
	PreviousClose    decimal.Decimal
	Change           decimal.Decimal
	ChangePercent    decimal.Decimal
	Volume           int64
	FiftyTwoWeekHigh decimal.Decimal
	FiftyTwoWeekLow  decimal.Decimal
	Timestamp        time.Time
}

// History summarizes daily closes over a period.
type History struct {
	Symbol        string
	Period        string
	CurrentPrice  decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	StartPrice    decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	AverageVolume int64
	DataPoints    int
	StartDate     time.Time
	EndDate       time.Time
}

// CompanyInfo holds company fundamentals. Zero values mean "not reported".
type CompanyInfo struct {
	Symbol           string
	Name             string
	Sector           string
	Industry         string
	Description      string
	Website          string
	Headquarters     string
	Employees        int64
	MarketCap        int64
	PERatio          decimal.Decimal
	ForwardPE        decimal.Decimal
	DividendYield    decimal.Decimal
	FiftyTwoWeekHigh decimal.Decimal
	FiftyTwoWeekLow  decimal.Decimal
	Source           string
}

// IndexQuote is one major market index.
type IndexQuote struct {
	Name          string
	Symbol        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

// MajorIndices lists the indices reported by Indices, in display order.
var MajorIndices = []struct {
	Symbol string
	Name   string
}{
	{"^GSPC", "S&P 500"},
	{"^DJI", "Dow Jones"},
	{"^IXIC", "NASDAQ"},
	{"^RUT", "Russell 2000"},
}

// TrendingSymbols is the fixed list of popular tickers.
var TrendingSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA",
	"NVDA", "META", "BRK-B", "JPM", "V",
}

// ValidPeriods are the history ranges accepted by the chart endpoint.
var ValidPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}
