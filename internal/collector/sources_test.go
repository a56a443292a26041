package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

// stubGetter serves canned bodies keyed by URL prefix.
type stubGetter struct {
	bodies map[string][]byte
	err    error
	urls   []string
}

func (s *stubGetter) Fetch(_ context.Context, u string) ([]byte, error) {
	s.urls = append(s.urls, u)
	if s.err != nil {
		return nil, s.err
	}
	for prefix, body := range s.bodies {
		if strings.HasPrefix(u, prefix) {
			return body, nil
		}
	}
	return nil, &model.FetchExhaustedError{Attempts: 1, LastErr: errors.New("not found")}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2330", "2330.TW"},
		{" 2330 ", "2330.TW"},
		{"aapl", "AAPL"},
		{"2330.tw", "2330.TW"},
		{"^gspc", "^GSPC"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSymbol(tt.in), tt.in)
	}
}

func TestDomestic(t *testing.T) {
	assert.True(t, IsDomestic("2330.TW"))
	assert.True(t, IsDomestic("0050"))
	assert.False(t, IsDomestic("AAPL"))
	assert.Equal(t, "2330", DomesticCode("2330.TW"))
	assert.Equal(t, "", DomesticCode("AAPL"))
}

func TestRangeFor(t *testing.T) {
	assert.Equal(t, "6mo", RangeFor("1d"))
	assert.Equal(t, "6mo", RangeFor(""))
	for _, iv := range []string{"5m", "15m", "30m", "60m"} {
		assert.Equal(t, "5d", RangeFor(iv), iv)
	}
}

func TestYahooSource_Chart(t *testing.T) {
	g := &stubGetter{bodies: map[string][]byte{DefaultYahooChartURL: chartPayload(t, sampleCandles(6), nil)}}
	src := NewYahooSource(g)

	series, err := src.Chart(context.Background(), "2330.TW", "15m")
	require.NoError(t, err)
	assert.Equal(t, "2330.TW", series.Symbol)
	assert.Equal(t, "5d", series.Range)
	assert.Len(t, series.Candles, 6)
	assert.Len(t, series.Volumes, 6)
	require.Len(t, g.urls, 1)
	assert.Equal(t, DefaultYahooChartURL+"2330.TW?range=5d&interval=15m", g.urls[0])
}

func TestYahooSource_MapsIndexSymbols(t *testing.T) {
	src := NewYahooSource(&stubGetter{})
	assert.Equal(t, DefaultYahooChartURL+"%5EGSPC?range=6mo&interval=1d", src.ChartURLFor("SPX500", "1d"))
}

func TestYahooSource_ChartErrors(t *testing.T) {
	src := NewYahooSource(&stubGetter{err: &model.FetchExhaustedError{Attempts: 4}})
	_, err := src.Chart(context.Background(), "AAPL", "1d")
	assert.ErrorIs(t, err, model.ErrFetchExhausted)

	src = NewYahooSource(&stubGetter{bodies: map[string][]byte{DefaultYahooChartURL: []byte("<html>")}})
	_, err = src.Chart(context.Background(), "AAPL", "1d")
	assert.ErrorIs(t, err, model.ErrMalformedPayload)
}

func TestYahooSource_Quote(t *testing.T) {
	g := &stubGetter{bodies: map[string][]byte{
		DefaultYahooQuoteURL: []byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":190}]}}`),
	}}
	q, err := NewYahooSource(g).Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, q.Last)
	assert.Equal(t, DefaultYahooQuoteURL+"?symbols=AAPL", g.urls[0])
}

func TestTWSESource_Quote(t *testing.T) {
	g := &stubGetter{bodies: map[string][]byte{
		DefaultTWSEURL: []byte(`{"msgArray":[{"c":"2330","z":"1000","y":"990"}]}`),
	}}
	src := NewTWSESource(g)

	q, err := src.Quote(context.Background(), "2330.TW")
	require.NoError(t, err)
	assert.Equal(t, "2330.TW", q.Symbol)
	assert.Equal(t, 1000.0, q.Last)
	assert.Equal(t, DefaultTWSEURL+"?ex_ch=tse_2330.tw", g.urls[0])

	_, err = src.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestYahooSource_ThroughFetcher(t *testing.T) {
	payload := chartPayload(t, sampleCandles(10), nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "6mo", r.URL.Query().Get("range"))
		assert.NotEmpty(t, r.URL.Query().Get("_"))
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	f, _, _ := newTestFetcher(t, WithRelays([]Relay{{Label: DirectLabel}}))
	src := NewYahooSource(f)
	src.ChartURL = srv.URL + "/v8/finance/chart/"

	series, err := src.Chart(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	assert.Len(t, series.Candles, 10)
}

type failingQuotes struct{ name string }

func (f failingQuotes) Name() string { return f.name }
func (f failingQuotes) Quote(context.Context, string) (model.Quote, error) {
	return model.Quote{}, errors.New(f.name + " down")
}

func TestCollector_DomesticQuoteChain(t *testing.T) {
	twse := &StaticSource{Price: 1000}
	yahoo := &StaticSource{Price: 999}
	c := NewCollector(&StaticSource{Price: 100, Bars: 30}, []QuoteSource{yahoo}, []QuoteSource{twse}, nil)

	snap, err := c.Collect(context.Background(), "2330.TW", "1d")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, snap.Quote.Last)
	assert.NoError(t, snap.QuoteErr)

	snap, err = c.Collect(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	assert.Equal(t, 999.0, snap.Quote.Last, "foreign symbols skip the domestic source")
}

func TestCollector_QuoteFallback(t *testing.T) {
	yahoo := &StaticSource{Price: 999}
	c := NewCollector(&StaticSource{Price: 100, Bars: 30}, []QuoteSource{yahoo}, []QuoteSource{failingQuotes{"twse"}}, nil)

	snap, err := c.Collect(context.Background(), "2330.TW", "1d")
	require.NoError(t, err)
	assert.Equal(t, 999.0, snap.Quote.Last)
}

func TestCollector_QuoteFailureUsesLastCandle(t *testing.T) {
	candles := sampleCandles(6)
	c := NewCollector(&StaticSource{Candles: candles}, []QuoteSource{failingQuotes{"yahoo"}}, nil, nil)

	snap, err := c.Collect(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	require.Error(t, snap.QuoteErr)
	assert.Equal(t, "chart", snap.Quote.Source)
	assert.Equal(t, candles[5].Close, snap.Quote.Last)
	assert.Len(t, snap.Series.Volumes, 6)
}

func TestCollector_ChartFailure(t *testing.T) {
	c := NewCollector(&StaticSource{Err: model.ErrMalformedPayload}, []QuoteSource{&StaticSource{Price: 1}}, nil, nil)
	_, err := c.Collect(context.Background(), "AAPL", "1d")
	assert.ErrorIs(t, err, model.ErrMalformedPayload)
}
