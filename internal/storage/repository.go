package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tripledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the audit store: refresh runs with their excluded
// rows, the allowance transfer journal and the field edit journal.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Audit schema ready", "path", dbPath, "version", version)

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordRun stores a run and its excluded rows in one transaction.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run AggregationRun, excluded []core.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.InsertRun(ctx, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, e := range excluded {
		if err := q.InsertExcluded(ctx, NewExcludedEntry(run.ID, e)); err != nil {
			return fmt.Errorf("insert excluded entry %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	slog.DebugContext(ctx, "Aggregation run recorded",
		"run_id", run.ID,
		"generation", run.Generation,
		"status", run.Status,
		"excluded", len(excluded))
	return nil
}

// ListRuns returns the most recent runs first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]AggregationRun, error) {
	runs, err := r.queries.ListRuns(ctx, int64(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ListExcluded returns the rows a run left out.
func (r *SQLiteRepository) ListExcluded(ctx context.Context, runID string) ([]ExcludedEntry, error) {
	items, err := r.queries.ListExcludedByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list excluded entries for run %s: %w", runID, err)
	}
	return items, nil
}

// PruneRuns deletes runs that finished before cutoff.
func (r *SQLiteRepository) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.queries.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return n, nil
}

// RecordTransfer journals a transfer attempt.
func (r *SQLiteRepository) RecordTransfer(ctx context.Context, rec TransferRecord) error {
	ids, err := json.Marshal(rec.Request.EntryIDs)
	if err != nil {
		return fmt.Errorf("encode entry ids: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	err = r.queries.InsertTransfer(ctx, transferRow{
		ID:          rec.ID,
		SourcePlate: rec.Request.SourcePlate,
		SourceDate:  rec.Request.SourceDate,
		TargetPlate: rec.Request.TargetPlate,
		TargetDate:  rec.Request.TargetDate,
		EntryIDs:    string(ids),
		Requested:   int64(len(rec.Request.EntryIDs)),
		Transferred: int64(rec.Transferred),
		Status:      rec.Status,
		Error:       rec.Error,
		CreatedAt:   created,
	})
	if err != nil {
		return fmt.Errorf("insert transfer %s: %w", rec.ID, err)
	}

	slog.InfoContext(ctx, "Transfer journaled",
		"proposal_id", rec.ID,
		"status", rec.Status,
		"transferred", rec.Transferred)
	return nil
}

// ListTransfers returns the journal, newest first.
func (r *SQLiteRepository) ListTransfers(ctx context.Context, limit int) ([]TransferRecord, error) {
	rows, err := r.queries.ListTransfers(ctx, int64(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]TransferRecord, 0, len(rows))
	for _, row := range rows {
		var ids []core.EntryID
		if err := json.Unmarshal([]byte(row.EntryIDs), &ids); err != nil {
			return nil, fmt.Errorf("decode entry ids of transfer %s: %w", row.ID, err)
		}
		out = append(out, TransferRecord{
			ID: row.ID,
			Request: core.TransferRequest{
				SourcePlate: row.SourcePlate,
				SourceDate:  row.SourceDate,
				TargetPlate: row.TargetPlate,
				TargetDate:  row.TargetDate,
				EntryIDs:    ids,
			},
			Transferred: int(row.Transferred),
			Status:      row.Status,
			Error:       row.Error,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

// RecordFieldEdit journals a field edit attempt.
func (r *SQLiteRepository) RecordFieldEdit(ctx context.Context, e FieldEdit) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	id, err := r.queries.InsertFieldEdit(ctx, e)
	if err != nil {
		return fmt.Errorf("insert field edit: %w", err)
	}
	slog.DebugContext(ctx, "Field edit journaled", "id", id, "field", e.Field, "status", e.Status)
	return nil
}

// ListFieldEdits returns the edit journal, newest first.
func (r *SQLiteRepository) ListFieldEdits(ctx context.Context, limit int) ([]FieldEdit, error) {
	items, err := r.queries.ListFieldEdits(ctx, int64(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list field edits: %w", err)
	}
	return items, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
