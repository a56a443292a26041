package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPulse/internal/logger"
	"StockPulse/internal/model"
)

// StaticSource returns controllable fixed data for development and testing.
type StaticSource struct {
	Price   float64
	Candles []model.Candle
	Volumes []model.VolumeBar
	Bars    int
	Err     error
}

func (m *StaticSource) Name() string { return "mock" }

func (m *StaticSource) Chart(_ context.Context, symbol, interval string) (*model.Series, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	candles, volumes := m.Candles, m.Volumes
	if candles == nil {
		n := m.Bars
		if n == 0 {
			n = 120
		}
		candles, volumes = generateMockBars(m.Price, n)
	}
	if volumes == nil {
		volumes = make([]model.VolumeBar, len(candles))
		for i, c := range candles {
			volumes[i] = model.VolumeBar{Time: c.Time, Direction: model.DirectionOf(c)}
		}
	}
	return &model.Series{
		Symbol:    symbol,
		Interval:  interval,
		Range:     RangeFor(interval),
		Candles:   candles,
		Volumes:   volumes,
		FetchedAt: time.Now(),
	}, nil
}

func (m *StaticSource) Quote(_ context.Context, symbol string) (model.Quote, error) {
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	return model.Quote{Symbol: symbol, Last: m.Price, Time: time.Now().Unix(), Source: m.Name()}, nil
}

func generateMockBars(basePrice float64, count int) ([]model.Candle, []model.VolumeBar) {
	if basePrice <= 0 {
		basePrice = 100
	}
	start := time.Now().AddDate(0, 0, -count).Unix()
	candles := make([]model.Candle, count)
	volumes := make([]model.VolumeBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		c := model.Candle{
			Time:  start + int64(i)*86400,
			Open:  p * 0.999,
			High:  p * 1.005,
			Low:   p * 0.995,
			Close: p,
		}
		candles[i] = c
		volumes[i] = model.VolumeBar{Time: c.Time, Value: 1000000, Direction: model.DirectionOf(c)}
	}
	return candles, volumes
}

// Snapshot is what one collection produces: the chart series and the best
// available quote.
type Snapshot struct {
	Series *model.Series
	Quote  model.Quote
	// QuoteErr is set when every quote source failed; Quote then falls back to the last candle.
	QuoteErr error
}

// Collector orchestrates quote and chart fetching for one symbol.
type Collector struct {
	Chart ChartSource
	// Domestic quote sources are tried in order for domestic symbols before Quotes.
	Domestic []QuoteSource
	Quotes   []QuoteSource
	logger   *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(chart ChartSource, quotes []QuoteSource, domestic []QuoteSource, l *logger.Logger) *Collector {
	if l == nil {
		l = logger.NewSilent()
	}
	return &Collector{Chart: chart, Quotes: quotes, Domestic: domestic, logger: l}
}

// Collect fetches the quote then the chart. Only the chart is required.
func (c *Collector) Collect(ctx context.Context, symbol, interval string) (*Snapshot, error) {
	quote, quoteErr := c.quote(ctx, symbol)
	if quoteErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch quote: %w", quoteErr)
		}
		c.logger.Warn().Err(quoteErr).Str("symbol", symbol).Msg("quote unavailable, using last candle")
	}

	series, err := c.Chart.Chart(ctx, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("fetch chart: %w", err)
	}

	snap := &Snapshot{Series: series, Quote: quote, QuoteErr: quoteErr}
	if quoteErr != nil && len(series.Candles) > 0 {
		last := series.Candles[len(series.Candles)-1]
		snap.Quote = model.Quote{
			Symbol: symbol, Last: last.Close, Open: last.Open, High: last.High, Low: last.Low,
			Time: last.Time, Source: "chart",
		}
	}
	return snap, nil
}

func (c *Collector) quote(ctx context.Context, symbol string) (model.Quote, error) {
	chain := c.Quotes
	if IsDomestic(symbol) {
		chain = append(append([]QuoteSource{}, c.Domestic...), c.Quotes...)
	}
	if len(chain) == 0 {
		return model.Quote{}, errors.New("no quote source configured")
	}
	var errs []error
	for _, src := range chain {
		q, err := src.Quote(ctx, symbol)
		if err == nil {
			return q, nil
		}
		c.logger.Debug().Err(err).Str("source", src.Name()).Str("symbol", symbol).Msg("quote source failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return model.Quote{}, errors.Join(errs...)
}
