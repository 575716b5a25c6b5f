// Package portfolio analyzes holdings for allocation and sector
// diversification.
package portfolio

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// ConcentrationThreshold is the allocation percentage above which a single
// holding is flagged as a concentration risk.
var ConcentrationThreshold = decimal.NewFromInt(25)

var hundred = decimal.NewFromInt(100)

// Quotes are fetched one by one behind the market data rate limit.
const allocationTimeout = 60 * time.Second

// Holding is one position of a portfolio.
type Holding struct {
	Symbol string  `json:"symbol" jsonschema:"Ticker symbol"`
	Shares float64 `json:"shares" jsonschema:"Number of shares held"`
}

// AllocationArgs lists the holdings to analyze.
type AllocationArgs struct {
	Holdings []Holding `json:"holdings" jsonschema:"Portfolio holdings, for example [{\"symbol\": \"AAPL\", \"shares\": 10}]"`
}

// Position is a valued holding.
type Position struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Shares            float64 `json:"shares"`
	Price             string  `json:"price"`
	Value             string  `json:"value"`
	AllocationPercent float64 `json:"allocation_percent"`
}

// AllocationResult is the valued portfolio, largest position first.
type AllocationResult struct {
	TotalValue   string     `json:"total_value"`
	Positions    []Position `json:"positions"`
	Concentrated []string   `json:"concentrated"`
	Skipped      []string   `json:"skipped"`
}

// NewAnalyzePortfolioAllocationTool returns a tool that values holdings and
// reports each position's share of the portfolio.
func NewAnalyzePortfolioAllocationTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"analyze_portfolio_allocation",
		"Analyze the asset allocation of a portfolio: value each holding at its current price and report its percentage of the total",
		analyzeAllocation(deps),
		deps,
	).
		WithTimeout(allocationTimeout).
		WithStats().
		Build()
}

func analyzeAllocation(deps shared.Deps) shared.Handler[AllocationArgs, AllocationResult] {
	log := deps.Logger().With("tool", "analyze_portfolio_allocation")

	return func(ctx context.Context, args AllocationArgs) (AllocationResult, error) {
		if !deps.HasMarketData() {
			return AllocationResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}
		if len(args.Holdings) == 0 {
			return AllocationResult{}, errors.NewValidationError("holdings", "at least one holding is required", nil)
		}

		type valued struct {
			symbol, name string
			shares       decimal.Decimal
			price, value decimal.Decimal
		}

		var (
			rows    []valued
			total   = decimal.Zero
			skipped = make([]string, 0)
		)
		for _, h := range args.Holdings {
			symbol := strings.ToUpper(strings.TrimSpace(h.Symbol))
			if h.Shares <= 0 {
				skipped = append(skipped, symbol)
				continue
			}
			q, err := deps.MarketData.Quote(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return AllocationResult{}, ctx.Err()
				}
				log.Debugw("Skipping holding without quote", "symbol", symbol, "error", err)
				skipped = append(skipped, symbol)
				continue
			}

			shares := decimal.NewFromFloat(h.Shares)
			value := q.Price.Mul(shares)
			total = total.Add(value)
			rows = append(rows, valued{symbol: q.Symbol, name: q.Name, shares: shares, price: q.Price, value: value})
		}

		if total.IsZero() {
			return AllocationResult{}, errors.Wrap(errors.ErrNoData, "could not calculate portfolio value")
		}

		sort.SliceStable(rows, func(i, j int) bool { return rows[i].value.GreaterThan(rows[j].value) })

		res := AllocationResult{
			TotalValue:   shared.Money(total),
			Positions:    make([]Position, 0, len(rows)),
			Concentrated: make([]string, 0),
			Skipped:      skipped,
		}
		for _, r := range rows {
			pct := r.value.Div(total).Mul(hundred)
			res.Positions = append(res.Positions, Position{
				Symbol:            r.symbol,
				Name:              r.name,
				Shares:            r.shares.InexactFloat64(),
				Price:             shared.Money(r.price),
				Value:             shared.Money(r.value),
				AllocationPercent: pct.Round(1).InexactFloat64(),
			})
			if pct.GreaterThan(ConcentrationThreshold) {
				res.Concentrated = append(res.Concentrated, r.symbol)
			}
		}
		return res, nil
	}
}
