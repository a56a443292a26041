package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"StockPulse/internal/collector"
	"StockPulse/internal/logger"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/recorder"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Sender delivers a chat message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// historyLimit caps /history replies.
const historyLimit = 10

// Scheduler manages the watchlist cron job and chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline Analyzer
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context

	Symbols  []string
	Interval string
	logger   *logger.Logger
}

// NewScheduler creates a new Scheduler. tn may be nil when no chat is configured.
func NewScheduler(ctx context.Context, p Analyzer, tn Sender, rec recorder.Recorder, l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.NewSilent()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
		Interval: pipeline.DefaultInterval,
		logger:   l,
	}
}

// RegisterWatchlist schedules the watchlist run for symbols.
func (s *Scheduler) RegisterWatchlist(spec string, symbols []string, interval string) error {
	s.Symbols = symbols
	if interval != "" {
		s.Interval = interval
	}
	if len(symbols) == 0 {
		s.logger.Info().Msg("watchlist empty, no job scheduled")
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, func() { s.RunWatchlist(s.Ctx) }); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("symbols", len(s.Symbols)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunWatchlist analyzes every watchlist symbol in turn and sends one digest.
// Crossovers get their own alert.
func (s *Scheduler) RunWatchlist(ctx context.Context) string {
	s.logger.Info().Strs("symbols", s.Symbols).Msg("running watchlist")
	var results []*pipeline.Result
	failures := map[string]error{}
	for _, sym := range s.Symbols {
		if ctx.Err() != nil {
			break
		}
		res, err := s.Pipeline.Analyze(ctx, pipeline.Request{Symbol: sym, Interval: s.Interval, Trigger: model.TriggerScheduled})
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", sym).Msg("watchlist analysis failed")
			failures[sym] = err
			continue
		}
		results = append(results, res)
		if res.Report.Technical.Crossover != model.CrossoverNone {
			s.trySend(fmt.Sprintf("🔔 <b>%s</b>: %s\n\n%s", res.Report.Symbol, res.Report.Technical.Crossover, notifier.FormatReport(res)))
		}
	}
	digest := notifier.FormatDigest(results, failures)
	s.trySend(digest)
	return digest
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage()
	}
	// Group chats append @botname to commands.
	name, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch name {
	case "/analyze", "/a":
		if len(args) == 0 {
			return "Usage: /analyze &lt;symbol&gt; [interval]"
		}
		req := pipeline.Request{Symbol: args[0], Trigger: model.TriggerCommand}
		if len(args) > 1 {
			req.Interval = args[1]
		}
		res, err := s.Pipeline.Analyze(ctx, req)
		if err != nil {
			return notifier.FormatError(args[0], err)
		}
		return notifier.FormatReport(res)
	case "/history":
		symbol := ""
		limit := historyLimit
		if len(args) > 0 {
			symbol = collector.NormalizeSymbol(args[0])
		}
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil && n > 0 && n <= 50 {
				limit = n
			}
		}
		entries, err := s.Recorder.Recent(symbol, limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("load history")
			return "history unavailable"
		}
		return notifier.FormatHistory(symbol, entries)
	case "/watchlist":
		if len(s.Symbols) == 0 {
			return "Watchlist is empty"
		}
		s.RunWatchlist(ctx)
		return ""
	default:
		return usage()
	}
}

func usage() string {
	return "Commands:\n• /analyze &lt;symbol&gt; [1d|5m|15m|30m|60m]\n• /history [symbol] [n]\n• /watchlist"
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
