package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stock-analyzer-go/config"
	"stock-analyzer-go/gateway"
	"stock-analyzer-go/infrastructure/logger"
	"stock-analyzer-go/market"
	"stock-analyzer-go/metrics"
	"stock-analyzer-go/recorder"
	"stock-analyzer-go/report"
	"stock-analyzer-go/scheduler"
	"stock-analyzer-go/server"
)

func newRunCmd() *cobra.Command {
	var watchConfig bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analyzer daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), watchConfig)
		},
	}
	cmd.Flags().BoolVar(&watchConfig, "watch-config", true, "hot-reload signal thresholds on config file change")
	return cmd
}

func runDaemon(parent context.Context, watchConfig bool) error {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MetricsAddr != "" {
		metrics.StartMetricsServer(cfg.Server.MetricsAddr)
		log.Info("metrics endpoint up", zap.String("addr", cfg.Server.MetricsAddr))
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sq, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		defer sq.Close()
		rec = sq
		log.Info("history recorder enabled", zap.String("path", cfg.Database.SQLitePath))
	}

	store, err := market.NewStore(cfg.Window.Capacity, cfg.Instruments)
	if err != nil {
		return err
	}
	pub := market.NewPublisher()

	limiter := gateway.NewTokenBucketLimiter(cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	fetcher := gateway.NewNSEClient(cfg.DataSource.BaseURL, limiter)

	sched := scheduler.New(scheduler.Config{
		Mode:     scheduler.Mode(cfg.Refresh.Mode),
		Interval: cfg.Refresh.Interval(),
	}, fetcher, store, pub, rec, log)
	sched.SetPolicy(market.SignalPolicy{CrashDrawdown: cfg.Signal.CrashDrawdown})

	// Start on the first configured instrument so the first client sees data.
	if err := sched.Select(cfg.Instruments[0]); err != nil {
		return err
	}
	go sched.Run(ctx)

	reports := report.NewRunner(ctx, fetcher, cfg.Instruments, rec, log)
	if err := reports.RegisterAll(cfg.Reports.WeeklyCron, cfg.Reports.DailyCron); err != nil {
		return err
	}
	reports.Start()
	defer reports.Stop()

	srv := server.New(sched, store, market.NewZoomState(), pub, log)
	go srv.Run(ctx)

	httpSrv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: srv.Handler()}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if watchConfig {
		go func() {
			w := config.Watcher{Path: configPath}
			_ = w.Start(ctx, func(next config.AppConfig) {
				sched.SetPolicy(market.SignalPolicy{CrashDrawdown: next.Signal.CrashDrawdown})
				if err := reports.Reschedule(next.Reports.WeeklyCron, next.Reports.DailyCron); err != nil {
					log.Warn("reschedule reports", zap.Error(err))
				}
				log.Info("config reloaded",
					zap.Float64("crash_drawdown", next.Signal.CrashDrawdown))
			})
		}()
	}

	log.Info("analyzer started",
		zap.Strings("instruments", cfg.Instruments),
		zap.String("mode", cfg.Refresh.Mode),
		zap.Int("window_capacity", cfg.Window.Capacity))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
