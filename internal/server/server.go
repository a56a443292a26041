// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockPulse/internal/calculator"
	"StockPulse/internal/collector"
	"StockPulse/internal/logger"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/recorder"
	"StockPulse/internal/render"
)

// Analyzer is the part of the pipeline the server drives.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Prepare(ctx context.Context, req pipeline.Request) (*collector.Snapshot, calculator.IndicatorSet, error)
}

// Server wraps Echo HTTP server.
type Server struct {
	echo     *echo.Echo
	addr     string
	pipeline Analyzer
	history  recorder.Recorder
	chart    *render.Session
	logger   *logger.Logger
}

// Option configures Server.
type Option func(*Server)

// WithRecorder enables /api/history.
func WithRecorder(r recorder.Recorder) Option {
	return func(s *Server) {
		s.history = r
	}
}

// WithChartSession sets the chart configuration used by /api/chart.
func WithChartSession(sess *render.Session) Option {
	return func(s *Server) {
		s.chart = sess
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates the HTTP server and registers its routes.
func New(addr string, p Analyzer, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		addr:     addr,
		pipeline: p,
		history:  recorder.NewNoopRecorder(),
		chart:    render.NewSession(),
		logger:   logger.NewSilent(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info().Str("uri", v.URI).Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
			return nil
		},
	}))

	e.GET("/healthz", s.Health)
	g := e.Group("/api")
	g.GET("/analyze", s.Analyze)
	g.GET("/chart", s.Chart)
	g.GET("/history", s.History)
	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

// AnalyzeResponse is the body of /api/analyze.
type AnalyzeResponse struct {
	Report     any    `json:"report"`
	Text       string `json:"text"`
	Enrichment any    `json:"enrichment"`
	UpdatedAt  string `json:"updated_at"`
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) Analyze(c echo.Context) error {
	req := &AnalyzeRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	res, err := s.pipeline.Analyze(c.Request().Context(), pipeline.Request{Symbol: req.Symbol, Interval: req.Interval})
	if err != nil {
		s.logger.Error().Err(err).Msg("analyze failed")
		return appError(c, err)
	}
	return c.JSON(http.StatusOK, AnalyzeResponse{
		Report:     res.Report,
		Text:       res.Text,
		Enrichment: res.Enrichment,
		UpdatedAt:  res.UpdatedAt,
	})
}

func (s *Server) Chart(c echo.Context) error {
	req := &AnalyzeRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	snap, set, err := s.pipeline.Prepare(c.Request().Context(), pipeline.Request{Symbol: req.Symbol, Interval: req.Interval})
	if err != nil {
		s.logger.Error().Err(err).Msg("chart data failed")
		return appError(c, err)
	}
	png, err := s.chart.Render(snap.Series, set)
	if err != nil {
		s.logger.Error().Err(err).Msg("chart render failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "chart rendering failed"})
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (s *Server) History(c echo.Context) error {
	req := &HistoryRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	entries, err := s.history.Recent(collector.NormalizeSymbol(req.Symbol), req.Limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("history query failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "history unavailable"})
	}
	if entries == nil {
		entries = []recorder.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
