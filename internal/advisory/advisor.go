package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/logger"
	"StockPulse/internal/model"
)

// DefaultTimeout bounds one enrichment call.
const DefaultTimeout = 8 * time.Second

// Status of the enrichment step.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Advice is the composed report plus the optional enrichment outcome.
type Advice struct {
	Text       string `json:"text"`
	Commentary string `json:"commentary,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Metrics receives one observation per enrichment attempt.
type Metrics interface {
	ObserveEnrichment(provider, status string)
}

// Advisor composes reports and optionally enriches them.
type Advisor struct {
	enricher Enricher
	timeout  time.Duration
	logger   *logger.Logger
	metrics  Metrics
}

// Option configures the advisor
type Option func(*Advisor)

// WithEnricher sets the enrichment provider. Nil disables enrichment.
func WithEnricher(e Enricher) Option {
	return func(a *Advisor) {
		a.enricher = e
	}
}

// WithTimeout bounds each enrichment call.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(a *Advisor) {
		a.logger = l
	}
}

// WithMetrics sets the enrichment observer.
func WithMetrics(m Metrics) Option {
	return func(a *Advisor) {
		a.metrics = m
	}
}

// NewAdvisor creates an advisor. Without an enricher it only composes.
func NewAdvisor(opts ...Option) *Advisor {
	a := &Advisor{timeout: DefaultTimeout, logger: logger.NewSilent()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise composes the report and appends enrichment when it succeeds.
// Enrichment failures are logged and reported in the status, never returned.
func (a *Advisor) Advise(ctx context.Context, r model.AnalysisReport) Advice {
	advice := Advice{Text: Compose(r), Status: StatusSkipped}
	if a.enricher == nil {
		return advice
	}
	advice.Provider = a.enricher.Name()

	ectx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.enricher.Enrich(ectx, BuildPrompt(r))
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty commentary")
	}
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", model.ErrEnrichmentFailed, advice.Provider, err)
		a.logger.Warn().Err(err).Str("symbol", r.Symbol).Msg("enrichment failed")
		advice.Status = StatusFailed
		advice.Error = err.Error()
		a.observe(advice)
		return advice
	}

	advice.Status = StatusOK
	advice.Commentary = strings.TrimSpace(text)
	advice.Text += fmt.Sprintf("\n\n--- AI commentary (%s) ---\n%s", advice.Provider, advice.Commentary)
	a.observe(advice)
	return advice
}

func (a *Advisor) observe(advice Advice) {
	if a.metrics != nil {
		a.metrics.ObserveEnrichment(advice.Provider, string(advice.Status))
	}
}
