package portfolio

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/adapters/marketdata"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

type fakeMarket struct {
	prices  map[string]string
	sectors map[string]string
}

func (f *fakeMarket) Quote(_ context.Context, symbol string) (*marketdata.Quote, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &marketdata.Quote{Symbol: symbol, Name: symbol + " Corp", Price: decimal.RequireFromString(p)}, nil
}

func (f *fakeMarket) CompanyInfo(_ context.Context, symbol string) (*marketdata.CompanyInfo, error) {
	s, ok := f.sectors[symbol]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &marketdata.CompanyInfo{Symbol: symbol, Sector: s}, nil
}

func (f *fakeMarket) History(context.Context, string, string) (*marketdata.History, error) {
	return nil, errors.ErrNoData
}

func (f *fakeMarket) Indices(context.Context) ([]marketdata.IndexQuote, error) { return nil, nil }

func (f *fakeMarket) Trending() []string { return nil }

func deps(m *fakeMarket) shared.Deps {
	return shared.Deps{MarketData: m, Log: logger.Nop()}
}

func TestAnalyzeAllocation(t *testing.T) {
	m := &fakeMarket{prices: map[string]string{"AAPL": "200", "MSFT": "400", "JPM": "100"}}
	res, err := analyzeAllocation(deps(m))(context.Background(), AllocationArgs{Holdings: []Holding{
		{Symbol: "aapl", Shares: 10},
		{Symbol: "MSFT", Shares: 2.5},
		{Symbol: "JPM", Shares: 10},
		{Symbol: "NOPE", Shares: 5},
		{Symbol: "ZERO", Shares: 0},
	}})
	require.NoError(t, err)

	assert.Equal(t, "$4,000.00", res.TotalValue)
	require.Len(t, res.Positions, 3)
	assert.Equal(t, "AAPL", res.Positions[0].Symbol)
	assert.Equal(t, 50.0, res.Positions[0].AllocationPercent)
	assert.Equal(t, "$2,000.00", res.Positions[0].Value)
	assert.Equal(t, 25.0, res.Positions[1].AllocationPercent)
	assert.Equal(t, 2.5, res.Positions[1].Shares)
	assert.Equal(t, []string{"AAPL"}, res.Concentrated)
	assert.Equal(t, []string{"NOPE", "ZERO"}, res.Skipped)
}

func TestAnalyzeAllocation_Errors(t *testing.T) {
	m := &fakeMarket{prices: map[string]string{}}
	_, err := analyzeAllocation(deps(m))(context.Background(), AllocationArgs{})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = analyzeAllocation(deps(m))(context.Background(), AllocationArgs{Holdings: []Holding{{Symbol: "X", Shares: 1}}})
	assert.True(t, errors.Is(err, errors.ErrNoData))
}

func TestCheckDiversification(t *testing.T) {
	m := &fakeMarket{sectors: map[string]string{
		"AAPL": "Technology", "MSFT": "Technology", "JPM": "Financial Services",
	}}
	res, err := checkDiversification(deps(m))(context.Background(), DiversificationArgs{Symbols: "aapl, msft,JPM,XYZ"})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Symbols)
	require.Len(t, res.Sectors, 2)
	assert.Equal(t, SectorWeight{Sector: "Technology", Count: 2, Percent: 50}, res.Sectors[0])
	assert.Equal(t, 25.0, res.Sectors[1].Percent)
	assert.Equal(t, []string{"XYZ"}, res.Unclassified)

	_, err = checkDiversification(deps(m))(context.Background(), DiversificationArgs{Symbols: "XYZ"})
	assert.True(t, errors.Is(err, errors.ErrNoData))

	_, err = checkDiversification(deps(m))(context.Background(), DiversificationArgs{Symbols: " , "})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
