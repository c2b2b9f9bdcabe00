package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertRun = `
INSERT INTO aggregation_runs (
    id, generation, reason, status, error, entry_count, trip_count,
    excluded_count, fuel_flag_count, gross_revenue, net_income, started_at, finished_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertRun(ctx context.Context, r AggregationRun) error {
	_, err := q.db.ExecContext(ctx, insertRun,
		r.ID, r.Generation, r.Reason, r.Status, r.Error, r.EntryCount, r.TripCount,
		r.ExcludedCount, r.FuelFlagCount, r.GrossRevenue, r.NetIncome,
		r.StartedAt.UTC(), r.FinishedAt.UTC())
	return err
}

const insertExcluded = `
INSERT OR REPLACE INTO excluded_entries (
    run_id, entry_id, plate_number, date, account_type, final_total, description
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertExcluded(ctx context.Context, e ExcludedEntry) error {
	_, err := q.db.ExecContext(ctx, insertExcluded,
		e.RunID, e.EntryID, e.PlateNumber, e.Date, e.AccountType, e.FinalTotal, e.Description)
	return err
}

const listRuns = `
SELECT id, generation, reason, status, error, entry_count, trip_count,
       excluded_count, fuel_flag_count, gross_revenue, net_income, started_at, finished_at
FROM aggregation_runs
ORDER BY finished_at DESC, generation DESC
LIMIT ?
`

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]AggregationRun, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AggregationRun
	for rows.Next() {
		var r AggregationRun
		if err := rows.Scan(
			&r.ID, &r.Generation, &r.Reason, &r.Status, &r.Error, &r.EntryCount, &r.TripCount,
			&r.ExcludedCount, &r.FuelFlagCount, &r.GrossRevenue, &r.NetIncome, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listExcludedByRun = `
SELECT run_id, entry_id, plate_number, date, account_type, final_total, description
FROM excluded_entries
WHERE run_id = ?
ORDER BY entry_id
`

func (q *Queries) ListExcludedByRun(ctx context.Context, runID string) ([]ExcludedEntry, error) {
	rows, err := q.db.QueryContext(ctx, listExcludedByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExcludedEntry
	for rows.Next() {
		var e ExcludedEntry
		if err := rows.Scan(&e.RunID, &e.EntryID, &e.PlateNumber, &e.Date, &e.AccountType, &e.FinalTotal, &e.Description); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertTransfer = `
INSERT INTO transfer_log (
    id, source_plate, source_date, target_plate, target_date, entry_ids,
    requested, transferred, status, error, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertTransfer(ctx context.Context, t transferRow) error {
	_, err := q.db.ExecContext(ctx, insertTransfer,
		t.ID, t.SourcePlate, t.SourceDate, t.TargetPlate, t.TargetDate, t.EntryIDs,
		t.Requested, t.Transferred, t.Status, t.Error, t.CreatedAt.UTC())
	return err
}

const listTransfers = `
SELECT id, source_plate, source_date, target_plate, target_date, entry_ids,
       requested, transferred, status, error, created_at
FROM transfer_log
ORDER BY created_at DESC
LIMIT ?
`

func (q *Queries) ListTransfers(ctx context.Context, limit int64) ([]transferRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransfers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []transferRow
	for rows.Next() {
		var t transferRow
		if err := rows.Scan(
			&t.ID, &t.SourcePlate, &t.SourceDate, &t.TargetPlate, &t.TargetDate, &t.EntryIDs,
			&t.Requested, &t.Transferred, &t.Status, &t.Error, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertFieldEdit = `
INSERT INTO trip_field_edits (
    plate_number, date, field, old_value, new_value, status, error, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) InsertFieldEdit(ctx context.Context, e FieldEdit) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertFieldEdit,
		e.PlateNumber, e.Date, e.Field, e.OldValue, e.NewValue, e.Status, e.Error, e.CreatedAt.UTC())
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listFieldEdits = `
SELECT id, plate_number, date, field, old_value, new_value, status, error, created_at
FROM trip_field_edits
ORDER BY id DESC
LIMIT ?
`

func (q *Queries) ListFieldEdits(ctx context.Context, limit int64) ([]FieldEdit, error) {
	rows, err := q.db.QueryContext(ctx, listFieldEdits, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FieldEdit
	for rows.Next() {
		var e FieldEdit
		if err := rows.Scan(&e.ID, &e.PlateNumber, &e.Date, &e.Field, &e.OldValue, &e.NewValue, &e.Status, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRunsBefore = `
DELETE FROM aggregation_runs WHERE finished_at < ?
`

func (q *Queries) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRunsBefore, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
