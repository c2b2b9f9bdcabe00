package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tripledger/internal/cli"
	apphttp "tripledger/internal/http"
	applog "tripledger/internal/log"
	"tripledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	res := cli.InitBackend(ctx, logger, cfg)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	amqpClient := cli.InitAMQP(logger, cfg)

	var svcOpts []services.LedgerServiceOption
	if repo != nil {
		svcOpts = append(svcOpts, services.WithAudit(repo))
	}
	if amqpClient != nil {
		svcOpts = append(svcOpts, services.WithNotifier(amqpClient))
	}
	ledgerSvc := services.NewLedgerService(res.Backend, svcOpts...)
	transfers := services.NewTransferCoordinator(res.Backend, ledgerSvc)

	srvOpts := []apphttp.Option{
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithTripCache(cfg.CacheSize, cfg.CacheTTL),
	}
	if repo != nil {
		srvOpts = append(srvOpts, apphttp.WithHistory(repo))
	}
	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, transfers, srvOpts...)

	// The server answers 503 until the first refresh lands.
	if status, err := ledgerSvc.Refresh(ctx, services.ReasonStartup); err != nil {
		logger.Warn("Initial ledger refresh failed, will retry on the next tick", "error", err)
	} else {
		logger.Info("Ledger views ready",
			applog.FieldGeneration, status.Generation,
			applog.FieldEntries, status.EntryCount)
	}

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if repo != nil {
			if err := repo.Close(); err != nil {
				logger.Warn("SQLite close error", "error", err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Ledger backend cleanup error", "error", err)
			}
		}
	})

	go refreshLoop(runCtx, logger, ledgerSvc, cfg.RefreshInterval)

	logger.Info("Starting tripledger server", "port", cfg.Port, "backend", cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Server stopped gracefully")
}

// refreshLoop rebuilds the views every interval so edits made directly in
// the ledger show up without a manual refresh.
func refreshLoop(ctx context.Context, logger *applog.Logger, svc *services.LedgerService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Refresh(ctx, services.ReasonTick); err != nil {
				logger.Warn("Periodic ledger refresh failed", "error", err)
			}
		}
	}
}
