package portfolio

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// DiversificationArgs lists the tickers to classify.
type DiversificationArgs struct {
	Symbols string `json:"symbols" jsonschema:"Comma separated ticker symbols, for example AAPL,MSFT,JPM"`
}

// SectorWeight is the share of symbols in one sector.
type SectorWeight struct {
	Sector  string  `json:"sector"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DiversificationResult groups symbols by sector, largest sector first.
type DiversificationResult struct {
	Symbols      int            `json:"symbols"`
	Sectors      []SectorWeight `json:"sectors"`
	Unclassified []string       `json:"unclassified"`
}

// NewCheckPortfolioDiversificationTool returns a tool that groups tickers by
// sector.
func NewCheckPortfolioDiversificationTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"check_portfolio_diversification",
		"Check diversification across sectors for a comma separated list of ticker symbols",
		checkDiversification(deps),
		deps,
	).
		WithTimeout(allocationTimeout).
		WithStats().
		Build()
}

func checkDiversification(deps shared.Deps) shared.Handler[DiversificationArgs, DiversificationResult] {
	return func(ctx context.Context, args DiversificationArgs) (DiversificationResult, error) {
		if !deps.HasMarketData() {
			return DiversificationResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		symbols := shared.Symbols(args.Symbols)
		if len(symbols) == 0 {
			return DiversificationResult{}, errors.NewValidationError("symbols", "at least one symbol is required", args.Symbols)
		}

		counts := make(map[string]int)
		unclassified := make([]string, 0)
		for _, symbol := range symbols {
			info, err := deps.MarketData.CompanyInfo(ctx, symbol)
			if err != nil && ctx.Err() != nil {
				return DiversificationResult{}, ctx.Err()
			}
			if err != nil || info.Sector == "" {
				unclassified = append(unclassified, symbol)
				continue
			}
			counts[info.Sector]++
		}

		if len(counts) == 0 {
			return DiversificationResult{}, errors.Wrap(errors.ErrNoData, "could not determine sector diversification")
		}

		total := decimal.NewFromInt(int64(len(symbols)))
		sectors := make([]SectorWeight, 0, len(counts))
		for sector, n := range counts {
			sectors = append(sectors, SectorWeight{
				Sector:  sector,
				Count:   n,
				Percent: decimal.NewFromInt(int64(n)).Div(total).Mul(hundred).Round(1).InexactFloat64(),
			})
		}
		sort.Slice(sectors, func(i, j int) bool {
			if sectors[i].Count != sectors[j].Count {
				return sectors[i].Count > sectors[j].Count
			}
			return sectors[i].Sector < sectors[j].Sector
		})

		return DiversificationResult{
			Symbols:      len(symbols),
			Sectors:      sectors,
			Unclassified: unclassified,
		}, nil
	}
}
