package market

import (
	"context"
	"time"

	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// IndexResult is one major market index.
type IndexResult struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Price         string  `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// IndicesResult lists the major indices in display order.
type IndicesResult struct {
	Indices []IndexResult `json:"indices"`
}

// NewGetMarketIndicesTool returns a tool reporting the major US indices.
func NewGetMarketIndicesTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_market_indices",
		"Get current values for the major market indices (S&P 500, Dow Jones, NASDAQ, Russell 2000)",
		getMarketIndices(deps),
		deps,
	).
		WithTimeout(30*time.Second).
		WithStats().
		Build()
}

func getMarketIndices(deps shared.Deps) shared.Handler[shared.NoArgs, IndicesResult] {
	return func(ctx context.Context, _ shared.NoArgs) (IndicesResult, error) {
		if !deps.HasMarketData() {
			return IndicesResult{}, errors.Wrap(errors.ErrNotConfigured, "market data provider")
		}

		indices, err := deps.MarketData.Indices(ctx)
		if err != nil {
			return IndicesResult{}, errors.Wrap(err, "market indices")
		}

		out := IndicesResult{Indices: make([]IndexResult, 0, len(indices))}
		for _, idx := range indices {
			out.Indices = append(out.Indices, IndexResult{
				Name:          idx.Name,
				Symbol:        idx.Symbol,
				Price:         shared.Number(idx.Price),
				Change:        shared.Float(idx.Change),
				ChangePercent: shared.Float(idx.ChangePercent),
			})
		}
		return out, nil
	}
}
