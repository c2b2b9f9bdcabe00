package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tripledger/internal/aggregate"
	"tripledger/internal/core"
	"tripledger/internal/sheets"
)

func sampleTrip() core.Trip {
	t := core.NewTrip(core.TripKey{Plate: "XYZ001", Date: "2024-01-05"})
	t.Driver = "Pedro"
	t.FrontLoad = "Sacks"
	t.BackLoad = "Strike"
	t.FrontLoadAmount = decimal.NewFromInt(1000)
	t.BackLoadAmount = decimal.NewFromInt(1000)
	t.FrontAndBackLoadAmount = decimal.NewFromInt(2000)
	t.Income = decimal.NewFromInt(2000)
	t.Allowance = decimal.NewFromInt(500)
	t.FuelLiters = decimal.RequireFromString("98.5")
	t.ReferenceNumbers = []string{"REF-1", "REF-2"}
	t.RemarksText = "meal"
	return *t
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "Trips")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestWriteReport_ServiceNotInitialized(t *testing.T) {
	c := newClient(nil, "test", "")
	assert.Equal(t, "Trips", c.tripsSheet)
	assert.Equal(t, "Trips Summary", c.summarySheet)

	_, err := c.WriteReport(context.Background(), sheets.Report{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestTripRows(t *testing.T) {
	rows := tripRows([]core.Trip{sampleTrip()})
	require.Len(t, rows, 2)
	assert.Equal(t, tripHeader, rows[0])
	assert.Len(t, rows[1], len(tripHeader))

	row := rows[1]
	assert.Equal(t, "2024-01-05", row[0])
	assert.Equal(t, "XYZ001", row[1])
	assert.Equal(t, "Pedro", row[4])
	assert.Equal(t, "Strike", row[7])
	assert.Equal(t, 2000.0, row[10])
	assert.Equal(t, 98.5, row[13])
	assert.Equal(t, "REF-1, REF-2", row[15])
	assert.Equal(t, "meal", row[16])
}

func TestSummaryRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	report := sheets.Report{
		GeneratedAt: at,
		Generation:  7,
		Revenue: aggregate.RevenueSummary{
			GrossRevenue: decimal.NewFromInt(2900),
			NetIncome:    decimal.NewFromInt(-4600),
			OPEX: []aggregate.CategoryTotal{
				{Category: core.SalariesAndWages, Amount: decimal.NewFromInt(2000), Entries: 1},
			},
		},
		Drivers: []aggregate.DriverEarnings{
			{Driver: "Pedro", Trips: 1, Income: decimal.NewFromInt(2000)},
		},
	}

	rows := summaryRows(report)
	assert.Equal(t, []interface{}{"Generated At", "2024-03-01T09:30:00Z"}, rows[0])
	assert.Equal(t, []interface{}{"Generation", int64(7)}, rows[1])
	assert.Contains(t, rows, []interface{}{"Gross Revenue", 2900.0})
	assert.Contains(t, rows, []interface{}{"Salaries and Wages", 2000.0})
	assert.Contains(t, rows, []interface{}{"Net Income", -4600.0})

	last := rows[len(rows)-1]
	assert.Equal(t, "Pedro", last[0])
	assert.Equal(t, 1, last[1])
	assert.Equal(t, 2000.0, last[2])
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{0: "", 1: "A", 17: "Q", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for n, want := range tests {
		assert.Equal(t, want, columnName(n), "column %d", n)
	}
	assert.Equal(t, "'Trips'!A1:Q3", a1Range("Trips", 3, 17))
	assert.Equal(t, "'Bob''s Trips'!A1:A1", a1Range("Bob's Trips", 0, 0))
}

type sheetsCall struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

func TestWriteReport_ReplacesBothSheets(t *testing.T) {
	var mu sync.Mutex
	var calls []sheetsCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		calls = append(calls, sheetsCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithoutAuthentication(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c := newClient(svc, "sheet-123", "Trips")
	ref, err := c.WriteReport(ctx, sheets.Report{
		GeneratedAt: time.Now(),
		Generation:  3,
		Trips:       []core.Trip{sampleTrip(), sampleTrip()},
	})
	require.NoError(t, err)
	assert.Equal(t, "'Trips'!A1:Q3", ref)

	require.Len(t, calls, 4)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.True(t, strings.HasSuffix(calls[0].path, ":clear"), calls[0].path)
	assert.Contains(t, calls[0].path, "/spreadsheets/sheet-123/values/")

	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Contains(t, calls[1].query, "valueInputOption=RAW")
	values, ok := calls[1].body["values"].([]interface{})
	require.True(t, ok)
	assert.Len(t, values, 3)

	assert.Contains(t, calls[2].path, "Trips Summary")
	assert.Equal(t, http.MethodPut, calls[3].method)
}

func TestWriteReport_PropagatesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"caller lacks permission"}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithoutAuthentication(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = newClient(svc, "sheet-123", "Trips").WriteReport(ctx, sheets.Report{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear sheet Trips")
}
