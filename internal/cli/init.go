// Package cli provides common CLI initialization utilities shared by
// cmd/tripledger, cmd/report-worker and cmd/ledger-report.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tripledger/internal/amqp"
	"tripledger/internal/backend"
	"tripledger/internal/config"
	applog "tripledger/internal/log"
	"tripledger/internal/sheets"
	gsheet "tripledger/internal/sheets/google"
	sheetsmem "tripledger/internal/sheets/memory"
	"tripledger/internal/storage"
)

// SetupLogger initializes structured logging for component and sets it as
// the default logger. LOG_LEVEL accepts debug, info, warn or error.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the audit database, running migrations on the way.
// An empty path disables auditing and returns nil.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	if dbPath == "" {
		logger.Info("Audit database disabled")
		return nil
	}
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite audit database ready", "path", dbPath)
	return sqliteRepo
}

// InitBackend creates the ledger backend selected by cfg.
// Exits the process if the backend cannot be created.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid ledger backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	logger.Info("Ledger backend initialized", "backend", backendCfg.Type)
	return res
}

// InitAMQP connects to the broker when AMQP_URL is set. A failed connection
// is logged and nil is returned so the caller can run without events.
func InitAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP not configured, ledger change events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, continuing without events", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// InitReportWriters builds the report sinks: Google Sheets when a
// spreadsheet is configured, plus a JSON mirror under mirrorDir when set.
func InitReportWriters(ctx context.Context, logger *applog.Logger, cfg *config.Config, mirrorDir string) []sheets.ReportWriter {
	var writers []sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.ReportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writers = append(writers, client)
		logger.Info("Google Sheets export enabled", "sheet", cfg.ReportSheetName)
	}
	if mirrorDir != "" {
		writers = append(writers, sheetsmem.NewWithDir(mirrorDir))
		logger.Info("Report mirror enabled", "dir", mirrorDir)
	}
	if len(writers) == 0 {
		logger.Warn("No report sinks configured; reports are built but not exported")
	}
	return writers
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
