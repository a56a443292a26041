package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/collector"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/recorder"
)

type stubHistory struct {
	recorder.NoopRecorder
	symbol  string
	limit   int
	entries []recorder.HistoryEntry
}

func (s *stubHistory) Recent(symbol string, limit int) ([]recorder.HistoryEntry, error) {
	s.symbol, s.limit = symbol, limit
	return s.entries, nil
}

func newTestServer(src *collector.StaticSource, opts ...Option) *Server {
	c := collector.NewCollector(src, []collector.QuoteSource{src}, nil, nil)
	return New(":0", pipeline.New(c), opts...)
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_ReturnsReport(t *testing.T) {
	s := newTestServer(&collector.StaticSource{Price: 250})

	rec := do(t, s, "/api/analyze?symbol=aapl")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "report")
	assert.Contains(t, body, "enrichment")
	assert.NotEmpty(t, body["text"])
	assert.NotEmpty(t, body["updated_at"])
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	s := newTestServer(&collector.StaticSource{Price: 250})

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"missing symbol", "/api/analyze", "symbol"},
		{"bad interval", "/api/analyze?symbol=AAPL&interval=1w", "interval"},
		{"symbol too long", "/api/analyze?symbol=ABCDEFGHIJKLMNOPQRSTUVWXYZ", "symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body.Details)
			assert.Equal(t, tt.field, body.Details[0].Field)
		})
	}
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		src    *collector.StaticSource
		status int
		msg    string
	}{
		{
			name:   "exhausted",
			src:    &collector.StaticSource{Err: &model.FetchExhaustedError{Attempts: 4}},
			status: http.StatusBadGateway,
			msg:    "data source unavailable, try again",
		},
		{
			name:   "malformed",
			src:    &collector.StaticSource{Err: model.ErrMalformedPayload},
			status: http.StatusBadGateway,
			msg:    "upstream data format error",
		},
		{
			name: "insufficient",
			src: &collector.StaticSource{Price: 10, Candles: []model.Candle{
				{Time: 1, Open: 10, High: 11, Low: 9, Close: 10},
				{Time: 2, Open: 10, High: 11, Low: 9, Close: 10.5},
			}},
			status: http.StatusUnprocessableEntity,
			msg:    "insufficient history for this symbol/interval",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(tt.src), "/api/analyze?symbol=AAPL")
			require.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
		})
	}
}

func TestChart_ReturnsPNG(t *testing.T) {
	s := newTestServer(&collector.StaticSource{Price: 600})

	rec := do(t, s, "/api/chart?symbol=2330&interval=1d")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])
}

func TestHistory_NormalizesSymbolAndDefaultsLimit(t *testing.T) {
	h := &stubHistory{entries: []recorder.HistoryEntry{{ID: "a", Symbol: "2330.TW", Score: 3}}}
	s := newTestServer(&collector.StaticSource{Price: 1}, WithRecorder(h))

	rec := do(t, s, "/api/history?symbol=2330")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2330.TW", h.symbol)
	assert.Equal(t, 20, h.limit)

	var entries []recorder.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

func TestHistory_EmptyIsArray(t *testing.T) {
	s := newTestServer(&collector.StaticSource{Price: 1})

	rec := do(t, s, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveAttempt("direct", "ok", 0.1)
	s := newTestServer(&collector.StaticSource{Price: 1}, WithGatherer(reg))

	rec := do(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "direct")

	rec = do(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
