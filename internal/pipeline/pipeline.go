package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"StockPulse/internal/advisory"
	"StockPulse/internal/analyzer"
	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/logger"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
	"StockPulse/internal/strategy"
)

// DefaultInterval is used when a request names none.
const DefaultInterval = "1d"

// TimeLayout formats the report's local update time.
const TimeLayout = "2006-01-02 15:04"

// Request is one analysis request.
type Request struct {
	Symbol   string
	Interval string
	Trigger  model.TriggerType
}

// Result is what a caller renders.
type Result struct {
	Report     model.AnalysisReport
	Text       string
	Enrichment advisory.Advice
	UpdatedAt  string

	Series     *model.Series           `json:"-"`
	Indicators calculator.IndicatorSet `json:"-"`
}

// Metrics receives one observation per analysis.
type Metrics interface {
	ObserveAnalysis(symbol, result string, price float64, score int)
}

// Pipeline runs a single request from symbol to report.
type Pipeline struct {
	collector *collector.Collector
	advisor   *advisory.Advisor
	recorder  recorder.Recorder
	metrics   Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithAdvisor sets the advisory composer.
func WithAdvisor(a *advisory.Advisor) Option {
	return func(p *Pipeline) {
		p.advisor = a
	}
}

// WithRecorder sets where completed analyses are stored.
func WithRecorder(r recorder.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithMetrics sets the analysis observer.
func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline over c.
func New(c *collector.Collector, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector: c,
		advisor:   advisory.NewAdvisor(),
		recorder:  recorder.NewNoopRecorder(),
		logger:    logger.NewSilent(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// normalize cleans the request or reports why it cannot run.
func normalize(req Request) (Request, error) {
	req.Symbol = collector.NormalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		return req, fmt.Errorf("%w: empty symbol", model.ErrInvalidRequest)
	}
	if req.Interval == "" {
		req.Interval = DefaultInterval
	}
	if !slices.Contains(collector.Intervals, req.Interval) {
		return req, fmt.Errorf("%w: unsupported interval %q", model.ErrInvalidRequest, req.Interval)
	}
	if req.Trigger == "" {
		req.Trigger = model.TriggerRequest
	}
	return req, nil
}

// Prepare fetches data for req and computes its indicators, without scoring.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (*collector.Snapshot, calculator.IndicatorSet, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, calculator.IndicatorSet{}, fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}
	snap, set, err := p.prepare(ctx, req)
	if err != nil {
		return nil, calculator.IndicatorSet{}, fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}
	return snap, set, nil
}

func (p *Pipeline) prepare(ctx context.Context, req Request) (*collector.Snapshot, calculator.IndicatorSet, error) {
	snap, err := p.collector.Collect(ctx, req.Symbol, req.Interval)
	if err != nil {
		return nil, calculator.IndicatorSet{}, err
	}
	if n := len(snap.Series.Candles); n < calculator.MinBars {
		return nil, calculator.IndicatorSet{}, fmt.Errorf("%w: %d bars, need %d", model.ErrInsufficientData, n, calculator.MinBars)
	}
	return snap, calculator.Compute(snap.Series.Candles, snap.Series.Volumes), nil
}

// Analyze runs the whole request. Errors are wrapped with the symbol and
// classify through model.UserMessage.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*Result, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}
	log := p.logger.With().Str("symbol", req.Symbol).Str("interval", req.Interval).Logger()

	snap, set, err := p.prepare(ctx, req)
	if err != nil {
		p.fail(req, err)
		log.Warn().Err(err).Msg("analysis failed")
		return nil, fmt.Errorf("analyze %s: %w", req.Symbol, err)
	}

	series := snap.Series
	structure := analyzer.Analyze(series.Candles, series.Volumes)
	ind := set.Latest
	report := model.AnalysisReport{
		ID:       uuid.NewString(),
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Bars:     len(series.Candles),
		Quote:    snap.Quote,
		Trend:    structure.Trend,
		Levels:   structure.Levels,
		Technical: model.TechnicalSummary{
			Close: ind.Close, SMA5: ind.SMA5, SMA20: ind.SMA20, SMA60: ind.SMA60,
			HasSMA5: ind.HasSMA5, HasSMA20: ind.HasSMA20, HasSMA60: ind.HasSMA60,
			RSI: ind.RSI14, HasRSI: ind.HasRSI,
			Crossover: strategy.DetectCrossover(set.SMA5, set.SMA20),
			Alignment: strategy.Alignment(ind),
			NearCross: strategy.NearCross(ind),
		},
		Volume:      structure.Volume,
		Sentiment:   strategy.Evaluate(ind),
		GeneratedAt: p.now(),
	}

	advice := p.advisor.Advise(ctx, report)

	if err := p.recorder.RecordAnalysis(&recorder.AnalysisRecord{
		Report: report, Trigger: req.Trigger, Enrichment: string(advice.Status),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record analysis")
	}
	if p.metrics != nil {
		p.metrics.ObserveAnalysis(req.Symbol, "ok", ind.Close, report.Sentiment.Score)
	}
	log.Info().Int("score", report.Sentiment.Score).Str("label", string(report.Sentiment.Label)).
		Str("enrichment", string(advice.Status)).Msg("analysis complete")

	return &Result{
		Report:     report,
		Text:       advice.Text,
		Enrichment: advice,
		UpdatedAt:  FormatLocal(report.GeneratedAt),
		Series:     series,
		Indicators: set,
	}, nil
}

func (p *Pipeline) fail(req Request, err error) {
	kind := "error"
	switch {
	case errors.Is(err, model.ErrFetchExhausted):
		kind = "fetch_exhausted"
	case errors.Is(err, model.ErrMalformedPayload):
		kind = "malformed"
	case errors.Is(err, model.ErrInsufficientData):
		kind = "insufficient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "cancelled"
	}
	if p.metrics != nil {
		p.metrics.ObserveAnalysis(req.Symbol, kind, 0, 0)
	}
	if rerr := p.recorder.RecordFailure(&recorder.FailureEvent{
		Symbol: req.Symbol, Interval: req.Interval, Trigger: req.Trigger, Kind: kind, Err: err.Error(),
	}); rerr != nil {
		p.logger.Warn().Err(rerr).Msg("failed to record failure")
	}
}

// FormatLocal renders t in local time, or an em dash for the zero time.
func FormatLocal(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format(TimeLayout)
}
