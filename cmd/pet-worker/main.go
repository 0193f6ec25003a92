package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pet/internal/amqp"
	"pet/internal/backend"
	"pet/internal/cli"
	applog "pet/internal/log"
	"pet/internal/metrics"
	"pet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(true)
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting pet-worker", "backend", cfg.DataBackend, "backup_schedule", cfg.BackupSchedule)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	res, err := factory.CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	mirror, err := factory.CreateMirror(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - mirroring to memory only")
	}

	syncWorker := worker.NewSyncWorker(res.Store, mirror)
	backups, err := worker.NewBackupScheduler(res.Store, cfg.BackupDir, cfg.BackupSchedule)
	if err != nil {
		logger.Error("Failed to create backup scheduler", "error", err)
		os.Exit(1)
	}
	m := metrics.New()

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(ctx); err != nil {
				logger.Error("Metrics server shutdown error", "error", err)
			}
		}
	})

	logger.Info("Performing startup sync...")
	if err := syncWorker.StartupSync(ctx); err != nil {
		// Keep running; the next event retries the full rewrite.
		logger.Error("Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return backups.Start(gctx)
	})
	if res.Events != nil {
		g.Go(func() error {
			return res.Events.Consume(gctx, func(ctx context.Context, ev *amqp.LedgerEvent) error {
				err := syncWorker.HandleLedgerEvent(ctx, ev)
				m.RecordEvent(string(ev.Kind), err)
				return err
			})
		})
	} else {
		logger.Info("Skipping event consumption - no AMQP connection available")
	}
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		if cerr := res.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup error", "error", cerr)
		}
		os.Exit(1)
	}
	<-done
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", "error", err)
	}
	logger.Info("Worker shutdown complete")
}
