package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRecordRunWithExcludedEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	opening := core.LedgerEntry{
		ID:          "99",
		PlateNumber: "xyz 001",
		Date:        core.NewDate(2024, 1, 1),
		AccountType: core.NameRef{Name: "Hauling Income"},
		FinalTotal:  decimal.NewFromInt(99999),
		Description: "Beginning Balance",
	}

	first := AggregationRun{
		ID: "run-1", Generation: 1, Reason: "startup", Status: StatusSucceeded,
		EntryCount: 10, TripCount: 3, ExcludedCount: 1,
		GrossRevenue: "2900", NetIncome: "-4600",
		StartedAt: start, FinishedAt: start.Add(time.Second),
	}
	require.NoError(t, repo.RecordRun(ctx, first, []core.LedgerEntry{opening}))

	second := first
	second.ID, second.Generation, second.Status, second.Error = "run-2", 2, StatusFailed, "ledger unavailable"
	second.StartedAt, second.FinishedAt = start.Add(time.Minute), start.Add(time.Minute+time.Second)
	require.NoError(t, repo.RecordRun(ctx, second, nil))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "ledger unavailable", runs[0].Error)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "-4600", runs[1].NetIncome)
	assert.True(t, runs[1].FinishedAt.Equal(start.Add(time.Second)))

	excluded, err := repo.ListExcluded(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, ExcludedEntry{
		RunID: "run-1", EntryID: "99", PlateNumber: "XYZ001", Date: "2024-01-01",
		AccountType: "Hauling Income", FinalTotal: "99999", Description: "Beginning Balance",
	}, excluded[0])

	// Duplicate run IDs are rejected and leave no partial rows.
	err = repo.RecordRun(ctx, first, []core.LedgerEntry{opening})
	assert.Error(t, err)
}

func TestPruneRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, repo.RecordRun(ctx, AggregationRun{
		ID: "old", Generation: 1, Reason: "tick", Status: StatusSucceeded,
		GrossRevenue: "0", NetIncome: "0", StartedAt: old, FinishedAt: old,
	}, nil))
	require.NoError(t, repo.RecordRun(ctx, AggregationRun{
		ID: "new", Generation: 2, Reason: "tick", Status: StatusSucceeded,
		GrossRevenue: "0", NetIncome: "0", StartedAt: time.Now(), FinishedAt: time.Now(),
	}, nil))

	n, err := repo.PruneRuns(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestTransferJournal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	req, err := core.NewTransferRequest(
		core.TripKey{Plate: "A", Date: "2024-02-01"},
		core.TripKey{Plate: "B", Date: "2024-02-02"},
		[]core.EntryID{"11", "x-12"},
	)
	require.NoError(t, err)

	base := time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordTransfer(ctx, TransferRecord{
		ID: "p-1", Request: req, Transferred: 2, Status: StatusSucceeded, CreatedAt: base,
	}))
	require.NoError(t, repo.RecordTransfer(ctx, TransferRecord{
		ID: "p-2", Request: req, Status: StatusFailed, Error: "entries locked", CreatedAt: base.Add(time.Hour),
	}))

	got, err := repo.ListTransfers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-2", got[0].ID)
	assert.Equal(t, "entries locked", got[0].Error)
	assert.Equal(t, req, got[1].Request)
	assert.Equal(t, 2, got[1].Transferred)
}

func TestFieldEditJournal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordFieldEdit(ctx, FieldEdit{
		PlateNumber: "XYZ001", Date: "2024-01-05", Field: "driver",
		OldValue: "Pedro", NewValue: "Maria", Status: StatusSucceeded,
	}))
	require.NoError(t, repo.RecordFieldEdit(ctx, FieldEdit{
		PlateNumber: "XYZ001", Date: "2024-01-05", Field: "trip_route",
		OldValue: "", NewValue: "North", Status: StatusFailed, Error: "rejected",
	}))

	edits, err := repo.ListFieldEdits(ctx, 1)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "trip_route", edits[0].Field)
	assert.Equal(t, StatusFailed, edits[0].Status)
	assert.NotZero(t, edits[0].ID)
	assert.False(t, edits[0].CreatedAt.IsZero())
}
