package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/core"
	"tripledger/internal/ledger"
)

func row(id, plate, date, account, total string) core.LedgerEntry {
	d, _ := core.ParseDate(date)
	return core.LedgerEntry{
		ID:          core.EntryID(id),
		PlateNumber: plate,
		Date:        d,
		AccountType: core.NameRef{Name: account},
		FinalTotal:  decimal.RequireFromString(total),
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"id": 1, "plate_number": "A", "date": "2024-02-01", "account_type": "Driver's Allowance", "final_total": 500}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err := NewFromFile(path)
	require.NoError(t, err)
	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "500", entries[0].FinalTotal.String())

	empty, err := NewFromFile("")
	require.NoError(t, err)
	entries, _ = empty.ListEntries(context.Background())
	assert.Empty(t, entries)

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestListEntriesReturnsCopy(t *testing.T) {
	s := New([]core.LedgerEntry{row("1", "A", "2024-02-01", "Fuel", "1")})
	entries, _ := s.ListEntries(context.Background())
	entries[0].PlateNumber = "CHANGED"

	again, _ := s.ListEntries(context.Background())
	assert.Equal(t, "A", again[0].PlateNumber)
}

func TestUpdateTripField(t *testing.T) {
	s := New([]core.LedgerEntry{
		row("1", "abc 123", "2024-02-01", "Hauling Income", "1000"),
		row("2", "ABC123", "2024-02-01", "Driver's Allowance", "500"),
		row("3", "ABC123", "2024-02-02", "Driver's Allowance", "500"),
	})
	ctx := context.Background()
	key := core.TripKey{Plate: "ABC123", Date: "2024-02-01"}

	u, err := core.NewFieldUpdate(key, core.FieldDriver, "Maria")
	require.NoError(t, err)
	require.NoError(t, s.UpdateTripField(ctx, u))

	u, err = core.NewFieldUpdate(key, core.FieldFrontLoad, "Palay")
	require.NoError(t, err)
	require.NoError(t, s.UpdateTripField(ctx, u))

	entries, _ := s.ListEntries(ctx)
	assert.Equal(t, "Maria", entries[0].Driver.String())
	assert.Equal(t, "Maria", entries[1].Driver.String())
	assert.Equal(t, "", entries[2].Driver.String())
	assert.Equal(t, "Palay", entries[0].FrontLoad.String())
	assert.Equal(t, "", entries[1].FrontLoad.String())
}

func TestUpdateTripFieldUnknownTrip(t *testing.T) {
	s := New(nil)
	u, err := core.NewFieldUpdate(core.TripKey{Plate: "ZZZ", Date: "2024-02-01"}, core.FieldRoute, "North")
	require.NoError(t, err)

	err = s.UpdateTripField(context.Background(), u)
	var me *ledger.MutationError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, ledger.UserMessage(err), "ZZZ/2024-02-01")
}

func TestTransferAllowances(t *testing.T) {
	s := New([]core.LedgerEntry{
		row("10", "A", "2024-02-01", "Driver's Allowance", "500"),
		row("11", "A", "2024-02-01", "Driver's Allowance", "300"),
		row("12", "A", "2024-02-01", "Fuel & Oil", "900"),
		row("13", "C", "2024-02-01", "Driver's Allowance", "100"),
	})
	ctx := context.Background()

	req, err := core.NewTransferRequest(
		core.TripKey{Plate: "A", Date: "2024-02-01"},
		core.TripKey{Plate: "B", Date: "2024-02-02"},
		[]core.EntryID{"10", "11", "12", "13"},
	)
	require.NoError(t, err)

	n, err := s.TransferAllowances(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, _ := s.ListEntries(ctx)
	want := core.TripKey{Plate: "B", Date: "2024-02-02"}
	assert.Equal(t, want, entries[0].Key())
	assert.Equal(t, want, entries[1].Key())
	assert.Equal(t, "A", entries[2].Key().Plate)
	assert.Equal(t, "C", entries[3].Key().Plate)

	_, err = s.TransferAllowances(ctx, req)
	assert.Error(t, err, "rows already moved")
}
