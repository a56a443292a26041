package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"StockPulse/internal/logger"
	"StockPulse/internal/model"
)

const (
	DefaultMaxRounds      = 2
	DefaultAttemptTimeout = 8 * time.Second
	DefaultBackoffBase    = 300 * time.Millisecond
	DefaultBackoffStep    = 200 * time.Millisecond
	DefaultUserAgent      = "Mozilla/5.0"

	maxBodyBytes = 16 << 20
)

// Attempt outcomes reported to Metrics.
const (
	OutcomeOK        = "ok"
	OutcomeTimeout   = "timeout"
	OutcomeStatus    = "status"
	OutcomeTransport = "transport"
)

// Attempt describes one route attempt; passed to the progress callback before the request is sent.
type Attempt struct {
	Route  string
	Round  int
	Number int
	URL    string
}

// Metrics receives one observation per route attempt.
type Metrics interface {
	ObserveAttempt(route, outcome string, seconds float64)
}

// ResilientFetcher executes a logical GET against a route table with a
// per-attempt timeout, sequential fallback across routes, and bounded retry
// rounds with backoff.
type ResilientFetcher struct {
	client         *http.Client
	relays         []Relay
	maxRounds      int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	backoffStep    time.Duration
	userAgent      string
	limiter        *rate.Limiter
	logger         *logger.Logger
	metrics        Metrics
	onAttempt      func(Attempt)
	sleep          func(ctx context.Context, d time.Duration) error
	seq            atomic.Uint64
}

// FetcherOption configures the fetcher
type FetcherOption func(*ResilientFetcher)

// WithRelays sets the relays used to derive a route table from a logical URL.
func WithRelays(relays []Relay) FetcherOption {
	return func(f *ResilientFetcher) {
		f.relays = relays
	}
}

// WithMaxRounds sets how many passes over the route table are made.
func WithMaxRounds(n int) FetcherOption {
	return func(f *ResilientFetcher) {
		if n > 0 {
			f.maxRounds = n
		}
	}
}

// WithAttemptTimeout bounds each single route attempt.
func WithAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *ResilientFetcher) {
		if d > 0 {
			f.attemptTimeout = d
		}
	}
}

// WithBackoff sets the delay after failed round r to base + (r-1)*step.
func WithBackoff(base, step time.Duration) FetcherOption {
	return func(f *ResilientFetcher) {
		f.backoffBase = base
		f.backoffStep = step
	}
}

// WithRateLimit caps attempts per second across all routes. Zero disables it.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *ResilientFetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithProxy routes every attempt through an outbound HTTP proxy.
func WithProxy(proxyURL string) FetcherOption {
	return func(f *ResilientFetcher) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			f.client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *ResilientFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header sent on every attempt.
func WithUserAgent(ua string) FetcherOption {
	return func(f *ResilientFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) FetcherOption {
	return func(f *ResilientFetcher) {
		f.logger = l
	}
}

// WithMetrics sets the attempt observer.
func WithMetrics(m Metrics) FetcherOption {
	return func(f *ResilientFetcher) {
		f.metrics = m
	}
}

// WithProgress sets a callback invoked before every attempt. It never affects control flow.
func WithProgress(fn func(Attempt)) FetcherOption {
	return func(f *ResilientFetcher) {
		f.onAttempt = fn
	}
}

// NewResilientFetcher creates a fetcher with the defaults above.
func NewResilientFetcher(opts ...FetcherOption) *ResilientFetcher {
	f := &ResilientFetcher{
		client:         &http.Client{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}},
		relays:         DefaultRelays(),
		maxRounds:      DefaultMaxRounds,
		attemptTimeout: DefaultAttemptTimeout,
		backoffBase:    DefaultBackoffBase,
		backoffStep:    DefaultBackoffStep,
		userAgent:      DefaultUserAgent,
		logger:         logger.NewSilent(),
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Routes returns the route table for logicalURL.
func (f *ResilientFetcher) Routes(logicalURL string) RouteTable {
	return BuildRoutes(logicalURL, f.relays)
}

// Fetch retrieves logicalURL through the configured relays.
func (f *ResilientFetcher) Fetch(ctx context.Context, logicalURL string) ([]byte, error) {
	return f.FetchRoutes(ctx, f.Routes(logicalURL))
}

// FetchRoutes tries every route in order, round after round, and returns the
// first successful body. When all attempts fail it returns a
// *model.FetchExhaustedError carrying the last error.
func (f *ResilientFetcher) FetchRoutes(ctx context.Context, routes RouteTable) ([]byte, error) {
	if len(routes) == 0 {
		return nil, &model.FetchExhaustedError{LastErr: errors.New("empty route table")}
	}

	var lastErr error
	attempts := 0
	for round := 1; round <= f.maxRounds; round++ {
		for _, route := range routes {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fetch cancelled: %w", err)
			}
			if f.limiter != nil {
				if err := f.limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("fetch cancelled: %w", err)
				}
			}

			attempts++
			physical := route.Physical(f.bust(route.URL))
			if f.onAttempt != nil {
				f.onAttempt(Attempt{Route: route.Label, Round: round, Number: attempts, URL: physical})
			}
			f.logger.Debug().Str("route", route.Label).Int("round", round).Msg("attempting route")

			body, err := f.attempt(ctx, route.Label, round, physical)
			if err == nil {
				return body, nil
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
			}
			lastErr = err
			f.logger.Warn().Err(err).Str("route", route.Label).Int("round", round).Msg("route attempt failed")
		}

		if round < f.maxRounds {
			if err := f.sleep(ctx, f.backoff(round)); err != nil {
				return nil, fmt.Errorf("fetch cancelled: %w", err)
			}
		}
	}

	return nil, &model.FetchExhaustedError{Attempts: attempts, Routes: routes.Labels(), LastErr: lastErr}
}

// attempt performs one bounded GET. The request is cancelled when the attempt times out.
func (f *ResilientFetcher) attempt(ctx context.Context, label string, round int, physical string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if f.metrics != nil {
			f.metrics.ObserveAttempt(label, outcome, time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, physical, nil)
	if err != nil {
		outcome = OutcomeTransport
		return nil, &model.AttemptError{Route: label, Round: round, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		outcome = OutcomeTransport
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			outcome = OutcomeTimeout
			err = fmt.Errorf("timeout after %s: %w", f.attemptTimeout, context.DeadlineExceeded)
		}
		return nil, &model.AttemptError{Route: label, Round: round, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = OutcomeStatus
		return nil, &model.AttemptError{Route: label, Round: round, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome = OutcomeTransport
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		return nil, &model.AttemptError{Route: label, Round: round, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// backoff is non-decreasing in round and never zero.
func (f *ResilientFetcher) backoff(round int) time.Duration {
	d := f.backoffBase + time.Duration(round-1)*f.backoffStep
	if d <= 0 {
		d = DefaultBackoffBase
	}
	return d
}

// bust appends a cache-busting parameter unique to this attempt to a logical URL.
func (f *ResilientFetcher) bust(physical string) string {
	n := f.seq.Add(1)
	sep := "?"
	if strings.Contains(physical, "?") {
		sep = "&"
	}
	return physical + sep + "_=" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "." + strconv.FormatUint(n, 10)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
