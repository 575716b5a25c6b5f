package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"finassist/pkg/errors"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartMeta struct {
	Symbol              string  `json:"symbol"`
	Currency            string  `json:"currency"`
	LongName            string  `json:"longName"`
	ShortName           string  `json:"shortName"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	ChartPreviousClose  float64 `json:"chartPreviousClose"`
	PreviousClose       float64 `json:"previousClose"`
	RegularMarketVolume int64   `json:"regularMarketVolume"`
	FiftyTwoWeekHigh    float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow     float64 `json:"fiftyTwoWeekLow"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// bar is one trading day with all prices present.
type bar struct {
	at     time.Time
	high   float64
	low    float64
	close  float64
	volume int64
}

func (r *chartResult) name(fallback string) string {
	switch {
	case r.Meta.LongName != "":
		return r.Meta.LongName
	case r.Meta.ShortName != "":
		return r.Meta.ShortName
	default:
		return fallback
	}
}

// bars drops days with a missing close. Missing highs and lows fall back to
// the close.
func (r *chartResult) bars() []bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]

	out := make([]bar, 0, len(q.Close))
	for i, c := range q.Close {
		if c == nil {
			continue
		}
		b := bar{close: *c, high: *c, low: *c}
		if i < len(r.Timestamp) {
			b.at = time.Unix(r.Timestamp[i], 0).UTC()
		}
		if i < len(q.High) && q.High[i] != nil {
			b.high = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.volume = *q.Volume[i]
		}
		out = append(out, b)
	}
	return out
}

func (r *chartResult) quote(symbol string, now time.Time) (*Quote, error) {
	bars := r.bars()

	price := r.Meta.RegularMarketPrice
	if price == 0 && len(bars) > 0 {
		price = bars[len(bars)-1].close
	}
	if price == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "no price for %s", symbol)
	}

	prev := r.Meta.ChartPreviousClose
	if len(bars) > 1 {
		prev = bars[len(bars)-2].close
	} else if r.Meta.PreviousClose != 0 {
		prev = r.Meta.PreviousClose
	}

	p := decimal.NewFromFloat(price)
	pc := decimal.NewFromFloat(prev)

	q := &Quote{
		Symbol:           symbol,
		Name:             r.name(symbol),
		Currency:         r.Meta.Currency,
		Price:            p.Round(2),
		PreviousClose:    pc.Round(2),
		Volume:           r.Meta.RegularMarketVolume,
		FiftyTwoWeekHigh: round2(r.Meta.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  round2(r.Meta.FiftyTwoWeekLow),
		Timestamp:        now,
	}
	if !pc.IsZero() {
		q.Change = p.Sub(pc).Round(2)
		q.ChangePercent = percentChange(pc, p)
	}
	return q, nil
}

func (r *chartResult) history(symbol, period string) (*History, error) {
	bars := r.bars()
	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "no history for %s", symbol)
	}

	first, last := bars[0], bars[len(bars)-1]
	high, low := first.high, first.low
	var volume int64
	for _, b := range bars {
		if b.high > high {
			high = b.high
		}
		if b.low < low {
			low = b.low
		}
		volume += b.volume
	}

	start := decimal.NewFromFloat(first.close)
	current := decimal.NewFromFloat(last.close)

	return &History{
		Symbol:        symbol,
		Period:        period,
		CurrentPrice:  current.Round(2),
		High:          round2(high),
		Low:           round2(low),
		StartPrice:    start.Round(2),
		Change:        current.Sub(start).Round(2),
		ChangePercent: percentChange(start, current),
		AverageVolume: volume / int64(len(bars)),
		DataPoints:    len(bars),
		StartDate:     first.at,
		EndDate:       last.at,
	}, nil
}

func (r *chartResult) companyInfo(symbol string) *CompanyInfo {
	return &CompanyInfo{
		Symbol:           symbol,
		Name:             r.name(symbol),
		FiftyTwoWeekHigh: round2(r.Meta.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  round2(r.Meta.FiftyTwoWeekLow),
		Source:           providerYahoo,
	}
}
