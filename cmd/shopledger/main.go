package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"shopledger/internal/amqp"
	"shopledger/internal/backend"
	"shopledger/internal/cache"
	"shopledger/internal/cli"
	"shopledger/internal/config"
	apphttp "shopledger/internal/http"
	"shopledger/internal/loader"
	applog "shopledger/internal/log"
	"shopledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, os.Stdout, applog.ComponentApp)
	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.New(ctx, bcfg, logger)
	if err != nil {
		return err
	}

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(res.Store)
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}
	defer cacheManager.Stop()

	ld := loader.New(res.Cached, loader.Sources{
		BalanceSpreadsheetID:      cfg.BalanceSpreadsheetID,
		TransactionsSpreadsheetID: cfg.TransactionsSpreadsheetID,
		BackupIndexSpreadsheetID:  cfg.BackupIndexSpreadsheetID,
	}, logger, cfg.FetchTimeout)

	refresher := worker.NewRefresher(ld.Warm, logger)
	defer refresher.Stop()
	// Fill the cache before the first dashboard asks for it.
	refresher.Request(ctx)

	if cfg.AMQPEnabled() {
		startRefreshWorker(ctx, cfg, logger, res, refresher)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, sheet changes are picked up on cache expiry")
	}

	srv := apphttp.New(ld, apphttp.Options{
		Addr:           ":" + cfg.Port,
		PageSize:       cfg.PageSize,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
		Status: func() map[string]any {
			return map[string]any{
				"cache":   res.Store.Stats(),
				"refresh": refresher.Last(),
				"backend": cfg.DataBackend,
			}
		},
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting shopledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", cfg.AMQPEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// startRefreshWorker consumes sheet changed messages in the background. A
// broker that cannot be reached at start-up only disables notifications.
func startRefreshWorker(ctx context.Context, cfg *config.Config, logger *applog.Logger, res *backend.Result, refresher *worker.Refresher) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without change notifications",
			applog.FieldError, err.Error())
		return
	}
	rw := worker.NewRefreshWorker(res.Cached, refresher, logger)
	go func() {
		defer client.Close()
		if err := client.ConsumeSheetChanged(ctx, rw.HandleSheetChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err.Error())
		}
	}()
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
}
