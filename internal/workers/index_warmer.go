package workers

import (
	"context"
	"time"

	"finassist/internal/adapters/marketdata"
)

// IndexSource returns the major market indices.
type IndexSource interface {
	Indices(ctx context.Context) ([]marketdata.IndexQuote, error)
}

// IndexWarmer refreshes index quotes so the market overview tool is served
// from cache. Run it at the market data cache TTL.
type IndexWarmer struct {
	*BaseWorker
	source IndexSource
}

// NewIndexWarmer creates the "market_indices" worker.
func NewIndexWarmer(source IndexSource, interval time.Duration, enabled bool) *IndexWarmer {
	return &IndexWarmer{
		BaseWorker: NewBaseWorker("market_indices", interval, enabled),
		source:     source,
	}
}

func (w *IndexWarmer) Run(ctx context.Context) error {
	indices, err := w.source.Indices(ctx)
	if err != nil {
		return err
	}
	w.Log().Debugw("Index quotes refreshed", "indices", len(indices))
	return nil
}
