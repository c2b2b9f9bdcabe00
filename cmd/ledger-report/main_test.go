package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/aggregate"
	"tripledger/internal/backend"
	"tripledger/internal/core"
	ledgermem "tripledger/internal/ledger/memory"
)

func seeded() *backend.BackendResult {
	d1, _ := core.ParseDate("2024-01-05")
	d2, _ := core.ParseDate("2024-02-01")
	return &backend.BackendResult{Backend: ledgermem.New([]core.LedgerEntry{
		{
			ID: "1", PlateNumber: "XYZ 001", Date: d1,
			AccountType: core.NameRef{Name: "Hauling Income"},
			Driver:      core.NameRef{Name: "Pedro"},
			FinalTotal:  decimal.NewFromInt(1000),
		},
		{
			ID: "2", PlateNumber: "ABC-123", Date: d2,
			AccountType: core.NameRef{Name: "Hauling Income"},
			Driver:      core.NameRef{Name: "Juan"},
			FinalTotal:  decimal.NewFromInt(900),
		},
	})}
}

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter("xyz 001", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, aggregate.TripFilter{Plate: "XYZ001", From: "2024-01-01", To: "2024-01-31"}, f)

	_, err = buildFilter("", "2024-02-01", "2024-01-01")
	assert.Error(t, err)

	_, err = buildFilter("", "yesterday", "")
	assert.Error(t, err)
}

func TestRunPrintsFilteredTrips(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), seeded(), "trips", aggregate.TripFilter{Plate: "ABC123"}, &out)
	require.NoError(t, err)

	var trips []core.Trip
	require.NoError(t, json.Unmarshal(out.Bytes(), &trips))
	require.Len(t, trips, 1)
	assert.Equal(t, "ABC123", trips[0].PlateNumber)
	assert.Equal(t, "Juan", trips[0].Driver)
}

func TestRunRevenue(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), seeded(), "revenue", aggregate.TripFilter{}, &out))

	var summary aggregate.RevenueSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, "1900", summary.GrossRevenue.String())
}

func TestRunUnknownView(t *testing.T) {
	err := run(context.Background(), seeded(), "payroll", aggregate.TripFilter{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown view")
}
