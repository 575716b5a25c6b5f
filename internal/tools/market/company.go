package market

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

const maxDescriptionLength = 300

// CompanyResult holds company fundamentals. Unreported values are omitted.
type CompanyResult struct {
	Symbol               string  `json:"symbol"`
	Name                 string  `json:"name"`
	Sector               string  `json:"sector"`
	Industry             string  `json:"industry"`
	Description          string  `json:"description,omitempty"`
	Website              string  `json:"website,omitempty"`
	Headquarters         string  `json:"headquarters,omitempty"`
	Employees            string  `json:"employees,omitempty"`
	MarketCap            string  `json:"market_cap,omitempty"`
	PERatio              float64 `json:"pe_ratio,omitempty"`
	ForwardPE            float64 `json:"forward_pe,omitempty"`
	DividendYieldPercent float64 `json:"dividend_yield_percent,omitempty"`
	FiftyTwoWeekHigh     float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow      float64 `json:"fifty_two_week_low,omitempty"`
	Source               string  `json:"source"`
}

// NewGetCompanyInformationTool returns a tool that fetches fundamentals.
func NewGetCompanyInformationTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_company_information",
		"Get company information for a ticker: sector, industry, description, market cap, P/E ratio and dividend yield",
		getCompanyInformation(deps),
		deps,
	).
		WithRetry(2, 500*time.Millisecond).
		WithStats().
		Build()
}

func getCompanyInformation(deps shared.Deps) shared.Handler[SymbolArgs, CompanyResult] {
	return func(ctx context.Context, args SymbolArgs) (CompanyResult, error) {
		if !deps.HasMarketData() {
			return CompanyResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		symbol, err := normalize(args.Symbol)
		if err != nil {
			return CompanyResult{}, err
		}

		info, err := deps.MarketData.CompanyInfo(ctx, symbol)
		if err != nil {
			return CompanyResult{}, errors.Wrapf(err, "company info %s", symbol)
		}

		res := CompanyResult{
			Symbol:               info.Symbol,
			Name:                 info.Name,
			Sector:               orNA(info.Sector),
			Industry:             orNA(info.Industry),
			Description:          shorten(info.Description, maxDescriptionLength),
			Website:              info.Website,
			Headquarters:         info.Headquarters,
			PERatio:              shared.Float(info.PERatio),
			ForwardPE:            shared.Float(info.ForwardPE),
			DividendYieldPercent: shared.Float(info.DividendYield.Shift(2)),
			FiftyTwoWeekHigh:     shared.Float(info.FiftyTwoWeekHigh),
			FiftyTwoWeekLow:      shared.Float(info.FiftyTwoWeekLow),
			Source:               info.Source,
		}
		if info.Employees > 0 {
			res.Employees = humanize.Comma(info.Employees)
		}
		if info.MarketCap > 0 {
			res.MarketCap = "$" + humanize.Comma(info.MarketCap)
		}
		return res, nil
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
