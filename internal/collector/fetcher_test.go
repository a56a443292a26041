package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

type attemptLog struct {
	mu       sync.Mutex
	outcomes []string
	routes   []string
}

func (a *attemptLog) ObserveAttempt(route, outcome string, _ float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes = append(a.routes, route)
	a.outcomes = append(a.outcomes, outcome)
}

func (a *attemptLog) failures() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, o := range a.outcomes {
		if o != OutcomeOK {
			n++
		}
	}
	return n
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func newTestFetcher(t *testing.T, opts ...FetcherOption) (*ResilientFetcher, *attemptLog, *sleepRecorder) {
	t.Helper()
	log := &attemptLog{}
	sleeper := &sleepRecorder{}
	base := []FetcherOption{
		WithAttemptTimeout(100 * time.Millisecond),
		WithMetrics(log),
	}
	f := NewResilientFetcher(append(base, opts...)...)
	f.sleep = sleeper.sleep
	return f, log, sleeper
}

func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRoutes_ScenarioC(t *testing.T) {
	slow := hangingServer(t)

	var calls atomic.Int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer flaky.Close()

	var progress []Attempt
	f, log, sleeper := newTestFetcher(t, WithMaxRounds(3), WithProgress(func(a Attempt) {
		progress = append(progress, a)
	}))

	body, err := f.FetchRoutes(context.Background(), RouteTable{
		{Label: "A", URL: slow.URL},
		{Label: "B", URL: flaky.URL},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	assert.Equal(t, 3, log.failures())
	assert.Equal(t, []string{OutcomeTimeout, OutcomeStatus, OutcomeTimeout, OutcomeOK}, log.outcomes)
	require.Len(t, progress, 4)
	assert.Equal(t, "B", progress[3].Route)
	assert.Equal(t, 2, progress[3].Round)
	assert.Len(t, sleeper.delays, 1)
}

func TestFetchRoutes_FirstKFailThenSuccess(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer ok.Close()

	for k := 0; k <= 3; k++ {
		routes := RouteTable{}
		for i := 0; i < k; i++ {
			routes = append(routes, Route{Label: "bad", URL: statusServer(t, http.StatusBadGateway).URL})
		}
		routes = append(routes, Route{Label: "good", URL: ok.URL})
		routes = append(routes, Route{Label: "never", URL: ok.URL})

		f, log, sleeper := newTestFetcher(t)
		body, err := f.FetchRoutes(context.Background(), routes)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(body))
		assert.Len(t, log.routes, k+1, "k=%d", k)
		assert.NotContains(t, log.routes, "never")
		assert.Empty(t, sleeper.delays)
	}
}

func TestFetchRoutes_Exhausted(t *testing.T) {
	bad := statusServer(t, http.StatusForbidden)

	f, log, sleeper := newTestFetcher(t, WithMaxRounds(3), WithBackoff(300*time.Millisecond, 200*time.Millisecond))
	_, err := f.FetchRoutes(context.Background(), RouteTable{
		{Label: "x", URL: bad.URL},
		{Label: "y", URL: bad.URL},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrFetchExhausted))

	var exhausted *model.FetchExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 6, exhausted.Attempts)
	assert.Equal(t, []string{"x", "y"}, exhausted.Routes)

	var last *model.AttemptError
	require.ErrorAs(t, err, &last)
	assert.Equal(t, "y", last.Route)
	assert.Equal(t, 3, last.Round)
	assert.Equal(t, http.StatusForbidden, last.StatusCode)

	assert.Equal(t, 6, log.failures())
	// sleeps only between rounds, non-decreasing
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 500 * time.Millisecond}, sleeper.delays)
}

func TestFetchRoutes_ContextCancelled(t *testing.T) {
	slow := hangingServer(t)

	f, _, _ := newTestFetcher(t, WithAttemptTimeout(5*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.FetchRoutes(ctx, RouteTable{{Label: "slow", URL: slow.URL}, {Label: "slow2", URL: slow.URL}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, model.ErrFetchExhausted))
}

func TestFetchRoutes_CacheBustsEveryAttempt(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Query().Get("_")] = true
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t, WithMaxRounds(2))
	_, err := f.FetchRoutes(context.Background(), RouteTable{
		{Label: "a", URL: srv.URL + "/chart?range=6mo"},
		{Label: "b", URL: srv.URL + "/chart"},
	})
	require.Error(t, err)
	assert.Len(t, seen, 4)
	assert.NotContains(t, seen, "")
}

func TestFetch_EncodedRelayForwardsFreshUpstreamURL(t *testing.T) {
	var mu sync.Mutex
	var forwarded []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		forwarded = append(forwarded, r.URL.Query().Get("url"))
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logical := "https://query1.finance.yahoo.com/v8/finance/chart/2330.TW?range=6mo&interval=1d"
	f, _, _ := newTestFetcher(t, WithMaxRounds(2), WithRelays([]Relay{
		{Label: "allorigins", Prefix: srv.URL + "/raw?url=", Encode: true},
	}))
	_, err := f.Fetch(context.Background(), logical)
	require.Error(t, err)

	require.Len(t, forwarded, 2)
	assert.NotEqual(t, forwarded[0], forwarded[1])
	for _, u := range forwarded {
		assert.True(t, strings.HasPrefix(u, logical+"&_="), u)
	}
}

func TestFetch_UsesRelays(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/relay/" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("direct"))
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t, WithRelays([]Relay{
		{Label: "relay", Prefix: srv.URL + "/relay/?u=", Encode: true},
		{Label: DirectLabel},
	}))
	body, err := f.Fetch(context.Background(), srv.URL+"/quote")
	require.NoError(t, err)
	assert.Equal(t, "direct", string(body))
	assert.Equal(t, []string{"/relay/", "/quote"}, paths)
}

func TestBuildRoutes(t *testing.T) {
	table := BuildRoutes("https://query1.finance.yahoo.com/v7/finance/quote?symbols=AAPL", DefaultRelays())
	require.Len(t, table, 4)
	assert.Equal(t, []string{"isomorphic", "allorigins", "thingproxy", "direct"}, table.Labels())
	assert.Equal(t, "https://cors.isomorphic-git.org/https://query1.finance.yahoo.com/v7/finance/quote?symbols=AAPL", table[0].Physical(table[0].URL))
	assert.Equal(t, "https://api.allorigins.win/raw?url=https%3A%2F%2Fquery1.finance.yahoo.com%2Fv7%2Ffinance%2Fquote%3Fsymbols%3DAAPL", table[1].Physical(table[1].URL))
	assert.Equal(t, "https://query1.finance.yahoo.com/v7/finance/quote?symbols=AAPL", table[3].Physical(table[3].URL))
	for _, r := range table {
		assert.Equal(t, "https://query1.finance.yahoo.com/v7/finance/quote?symbols=AAPL", r.URL)
	}

	direct := BuildRoutes("http://x", nil)
	assert.Equal(t, RouteTable{{Label: DirectLabel, URL: "http://x"}}, direct)
}
