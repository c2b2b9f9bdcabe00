package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tripledger/internal/aggregate"
	"tripledger/internal/amqp"
	"tripledger/internal/ledger"
	"tripledger/internal/services"
	"tripledger/internal/sheets"
)

// Refresher rebuilds the views from the ledger.
type Refresher interface {
	Refresh(ctx context.Context, reason string) (services.Status, error)
	Views() aggregate.Views
}

// RunPruner deletes audit runs older than a cutoff.
type RunPruner interface {
	PruneRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReportWorker keeps exported reports in step with the ledger. Each sync
// refreshes the views once and then runs every sink concurrently.
type ReportWorker struct {
	ledger    Refresher
	writers   []sheets.ReportWriter
	pruner    RunPruner
	retention time.Duration
	now       func() time.Time

	mu           sync.Mutex
	lastExported int64
}

// NewReportWorker creates a worker. pruner may be nil; retention <= 0
// disables pruning.
func NewReportWorker(ledger Refresher, writers []sheets.ReportWriter, pruner RunPruner, retention time.Duration) *ReportWorker {
	return &ReportWorker{
		ledger:    ledger,
		writers:   writers,
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}
}

// HandleLedgerChanged processes a single ledger changed message from AMQP
func (w *ReportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger changed message",
		"event_id", msg.EventID,
		"reason", msg.Reason,
		"trips", len(msg.TripKeys))

	err := w.Sync(ctx, msg.Reason)
	if errors.Is(err, ledger.ErrUnavailable) {
		// The periodic sync retries; requeueing would only spin.
		slog.WarnContext(ctx, "Ledger unavailable, leaving message to the next tick",
			"event_id", msg.EventID, "error", err)
		return nil
	}
	return err
}

// Sync refreshes the views and pushes them to every sink. A generation that
// was already exported is not written again.
func (w *ReportWorker) Sync(ctx context.Context, reason string) error {
	status, err := w.ledger.Refresh(ctx, reason)
	if err != nil {
		return fmt.Errorf("refresh views: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if w.shouldExport(status.Generation) {
		report := sheets.NewReport(w.ledger.Views(), status.Generation, w.now())
		for _, writer := range w.writers {
			writer := writer
			g.Go(func() error {
				ref, err := writer.WriteReport(gctx, report)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				slog.InfoContext(gctx, "Report written",
					"ref", ref,
					"generation", report.Generation,
					"trips", len(report.Trips))
				return nil
			})
		}
	} else {
		slog.DebugContext(ctx, "Generation already exported", "generation", status.Generation)
	}

	if w.pruner != nil && w.retention > 0 {
		g.Go(func() error {
			n, err := w.pruner.PruneRuns(gctx, w.now().Add(-w.retention))
			if err != nil {
				return fmt.Errorf("prune runs: %w", err)
			}
			if n > 0 {
				slog.InfoContext(gctx, "Pruned aggregation runs", "count", n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	w.markExported(status.Generation)
	return nil
}

// StartupSync exports the current ledger once when the worker starts, so a
// report missed during downtime is caught up.
func (w *ReportWorker) StartupSync(ctx context.Context) error {
	if err := w.Sync(ctx, services.ReasonStartup); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed")
	return nil
}

// RunPeriodic syncs on every tick until ctx is done.
func (w *ReportWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx, services.ReasonTick); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *ReportWorker) shouldExport(gen int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen > w.lastExported
}

func (w *ReportWorker) markExported(gen int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen > w.lastExported {
		w.lastExported = gen
	}
}
