package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"StockPulse/internal/model"
)

const (
	DefaultYahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"
	DefaultYahooQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
)

// YahooSource implements ChartSource and QuoteSource using Yahoo Finance public API.
type YahooSource struct {
	Getter    Getter
	ChartURL  string
	QuoteURL  string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	now       func() time.Time
}

// NewYahooSource creates a Yahoo source fetching through g.
func NewYahooSource(g Getter) *YahooSource {
	return &YahooSource{
		Getter:   g,
		ChartURL: DefaultYahooChartURL,
		QuoteURL: DefaultYahooQuoteURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"TAIEX":  "^TWII",
		},
		now: time.Now,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := s.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// ChartURLFor builds the logical chart URL.
func (s *YahooSource) ChartURLFor(symbol, interval string) string {
	return fmt.Sprintf("%s%s?range=%s&interval=%s",
		s.ChartURL, url.PathEscape(s.yahooSymbol(symbol)), RangeFor(interval), interval)
}

// Chart fetches and normalizes candles for symbol at interval.
func (s *YahooSource) Chart(ctx context.Context, symbol, interval string) (*model.Series, error) {
	if interval == "" {
		interval = "1d"
	}
	raw, err := s.Getter.Fetch(ctx, s.ChartURLFor(symbol, interval))
	if err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	candles, volumes, err := NormalizeChart(raw)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	return &model.Series{
		Symbol:    symbol,
		Interval:  interval,
		Range:     RangeFor(interval),
		Candles:   candles,
		Volumes:   volumes,
		FetchedAt: s.now(),
	}, nil
}

// Quote fetches the snapshot quote for symbol.
func (s *YahooSource) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	u := fmt.Sprintf("%s?symbols=%s", s.QuoteURL, url.QueryEscape(s.yahooSymbol(symbol)))
	raw, err := s.Getter.Fetch(ctx, u)
	if err != nil {
		return model.Quote{}, fmt.Errorf("yahoo quote: %w", err)
	}
	q, err := NormalizeQuote(raw, s.now())
	if err != nil {
		return model.Quote{}, fmt.Errorf("yahoo quote: %w", err)
	}
	q.Symbol = symbol
	return q, nil
}
