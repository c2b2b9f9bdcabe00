package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/core"
	"tripledger/internal/sheets"
)

func TestStoreWriteAndLast(t *testing.T) {
	s := New()
	_, ok := s.Last()
	assert.False(t, ok)

	ctx := context.Background()
	ref, err := s.WriteReport(ctx, sheets.Report{Generation: 1})
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = s.WriteReport(ctx, sheets.Report{Generation: 2})
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, int64(2), last.Generation)
	assert.Equal(t, 2, s.Count())
}

func TestStoreMirrorsToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s := NewWithDir(dir)

	trip := core.NewTrip(core.TripKey{Plate: "XYZ001", Date: "2024-01-05"})
	_, err := s.WriteReport(context.Background(), sheets.Report{
		GeneratedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Generation:  4,
		Trips:       []core.Trip{*trip},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)

	var got struct {
		Generation int64 `json:"generation"`
		Trips      []struct {
			PlateNumber string `json:"plate_number"`
		} `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(4), got.Generation)
	require.Len(t, got.Trips, 1)
	assert.Equal(t, "XYZ001", got.Trips[0].PlateNumber)
}
