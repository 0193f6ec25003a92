package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pet/internal/backend"
	"pet/internal/cache"
	"pet/internal/cli"
	apphttp "pet/internal/http"
	applog "pet/internal/log"
	"pet/internal/metrics"
	"pet/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(false)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

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

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.Publisher
	if res.Events != nil {
		publisher = res.Events
	}
	svc := services.NewExpenseService(res.Store, publisher)
	if err := svc.Load(context.Background()); err != nil {
		logger.Error("Failed to load ledger, starting empty", "error", err)
	}

	m := metrics.New()
	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithMetrics(m),
		apphttp.WithCache(cfg.CacheSize, cfg.CacheTTL),
		apphttp.WithWriteLimit(cfg.WriteRateLimit),
		apphttp.WithTrustedProxies(cfg.TrustedProxies...),
	}
	if cfg.SheetsEnabled() {
		mirror, err := factory.CreateMirror(context.Background(), bcfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		opts = append(opts, apphttp.WithSheet(mirror))
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, opts...)
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	go cache.NewManager(srv.Caches()...).Run(ctx, time.Minute)

	logger.Info("Starting pet server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil,
		"sheets", cfg.SheetsEnabled(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
