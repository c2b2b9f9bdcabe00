package main

import (
	"context"
	"errors"
	"time"

	"tripledger/internal/cli"
	applog "tripledger/internal/log"
	"tripledger/internal/services"
	"tripledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting report-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	amqpClient := cli.InitAMQP(logger, cfg)
	writers := cli.InitReportWriters(context.Background(), logger, cfg, cfg.ReportMirrorDir)

	var svcOpts []services.LedgerServiceOption
	var pruner worker.RunPruner
	if repo != nil {
		svcOpts = append(svcOpts, services.WithAudit(repo))
		pruner = repo
	}
	ledgerSvc := services.NewLedgerService(res.Backend, svcOpts...)
	reportWorker := worker.NewReportWorker(ledgerSvc, writers, pruner, cfg.ReportRetention)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
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

	// Catch up on anything missed while the worker was down.
	if err := reportWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeLedgerChanged(ctx, reportWorker.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed, falling back to periodic sync", "error", err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP consumption, periodic sync only")
	}

	go reportWorker.RunPeriodic(ctx, cfg.RefreshInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
