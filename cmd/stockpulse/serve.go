package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockPulse/internal/notifier"
	"StockPulse/internal/render"
	"StockPulse/internal/scheduler"
	"StockPulse/internal/server"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, watchlist scheduler and Telegram bot",
		Long:  `Starts the HTTP API, the scheduled watchlist job and, when a bot token is configured, Telegram command polling. Runs until SIGINT or SIGTERM.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	// Init Telegram notifier. A nil Sender must stay an untyped nil.
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Fetch.Proxy, log.Component("telegram"))
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, a.pipeline, sender, a.recorder, log.Component("scheduler"))
	if len(cfg.Schedule.Symbols) > 0 {
		if err := sched.RegisterWatchlist(cfg.Schedule.WatchlistCron, cfg.Schedule.Symbols, cfg.Schedule.Interval); err != nil {
			return fmt.Errorf("register watchlist: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	srv := server.New(cfg.Server.Addr, a.pipeline,
		server.WithRecorder(a.recorder),
		server.WithChartSession(render.NewSession()),
		server.WithGatherer(a.registry),
		server.WithLogger(log.Component("http")),
	)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().Msg("StockPulse is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info().Msg("StockPulse stopped")
	return nil
}
