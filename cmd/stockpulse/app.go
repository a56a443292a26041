package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"StockPulse/internal/advisory"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/logger"
	"StockPulse/internal/metrics"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/recorder"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	recorder recorder.Recorder
	pipeline *pipeline.Pipeline
}

// newApp loads config and wires the analysis pipeline.
func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info().Str("config", cfgPath).Msg("StockPulse starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Component("recorder"))
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	adv, err := buildAdvisor(ctx, cfg, log, m)
	if err != nil {
		_ = rec.Close()
		return nil, err
	}

	p := pipeline.New(buildCollector(cfg, log, m),
		pipeline.WithAdvisor(adv),
		pipeline.WithRecorder(rec),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(log.Component("pipeline")),
	)
	return &app{cfg: cfg, log: log, registry: reg, recorder: rec, pipeline: p}, nil
}

func (a *app) Close() error {
	return a.recorder.Close()
}

// buildCollector wires the fetcher and upstream sources selected by cfg.
func buildCollector(cfg *config.Config, log *logger.Logger, m *metrics.Recorder) *collector.Collector {
	if cfg.Sources.Provider == "mock" {
		src := &collector.StaticSource{Price: cfg.Sources.MockPrice}
		log.Info().Str("source", src.Name()).Msg("data source")
		return collector.NewCollector(src, []collector.QuoteSource{src}, nil, log.Component("collector"))
	}

	fetcher := collector.NewResilientFetcher(
		collector.WithRelays(cfg.Routes.Relays),
		collector.WithMaxRounds(cfg.Fetch.MaxRounds),
		collector.WithAttemptTimeout(cfg.Fetch.AttemptTimeout),
		collector.WithBackoff(cfg.Fetch.BackoffBase, cfg.Fetch.BackoffStep),
		collector.WithRateLimit(cfg.Fetch.RatePerSec),
		collector.WithProxy(cfg.Fetch.Proxy),
		collector.WithUserAgent(cfg.Fetch.UserAgent),
		collector.WithLogger(log.Component("fetcher")),
		collector.WithMetrics(m),
	)

	yahoo := collector.NewYahooSource(fetcher)
	yahoo.ChartURL = cfg.Sources.YahooChartURL
	yahoo.QuoteURL = cfg.Sources.YahooQuoteURL

	var domestic []collector.QuoteSource
	if cfg.Sources.TWSE() {
		twse := collector.NewTWSESource(fetcher)
		twse.BaseURL = cfg.Sources.TWSEURL
		domestic = append(domestic, twse)
	}
	log.Info().Str("source", yahoo.Name()).Int("relays", len(cfg.Routes.Relays)).Bool("twse", len(domestic) > 0).Msg("data source")
	return collector.NewCollector(yahoo, []collector.QuoteSource{yahoo}, domestic, log.Component("collector"))
}

func buildAdvisor(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Recorder) (*advisory.Advisor, error) {
	opts := []advisory.Option{
		advisory.WithTimeout(cfg.Enrichment.Timeout),
		advisory.WithLogger(log.Component("advisory")),
		advisory.WithMetrics(m),
	}
	e := cfg.Enrichment
	switch e.Provider {
	case "gemini":
		g, err := advisory.NewGeminiEnricher(ctx, e.APIKey, e.Model)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		opts = append(opts, advisory.WithEnricher(g))
	case "claude":
		opts = append(opts, advisory.WithEnricher(advisory.NewClaudeEnricher(e.APIKey, e.Model)))
	case "webhook":
		opts = append(opts, advisory.WithEnricher(advisory.NewWebhookEnricher(e.Endpoint, e.APIKey)))
	}
	if e.Provider != "none" {
		log.Info().Str("provider", e.Provider).Msg("enrichment enabled")
	}
	return advisory.NewAdvisor(opts...), nil
}
