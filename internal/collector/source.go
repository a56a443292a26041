package collector

import (
	"context"

	"StockPulse/internal/model"
)

// ChartSource returns a normalized candle series for a symbol and interval.
type ChartSource interface {
	Chart(ctx context.Context, symbol, interval string) (*model.Series, error)
	Name() string
}

// QuoteSource returns a snapshot quote for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}

// Getter is the transport the sources use; ResilientFetcher implements it.
type Getter interface {
	Fetch(ctx context.Context, logicalURL string) ([]byte, error)
}

// Intervals supported by the chart sources.
var Intervals = []string{"1d", "5m", "15m", "30m", "60m"}

// RangeFor picks the chart range for an interval: six months of daily bars,
// five days for intraday intervals.
func RangeFor(interval string) string {
	if interval == "" || interval == "1d" {
		return "6mo"
	}
	return "5d"
}
