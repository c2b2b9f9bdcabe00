package http

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/core"
	"tripledger/internal/ledger"
	mock_ledger "tripledger/internal/ledger/mocks"
	"tripledger/internal/services"
)

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, mock_ledger.NewMockBackend(gomock.NewController(t)))

	rr := env.do(http.MethodGet, "/healthz", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, "ok", decode[map[string]interface{}](t, rr)["status"])

	rr = env.do(http.MethodGet, "/readyz", "")
	requireStatus(t, rr, http.StatusServiceUnavailable)
	assert.Equal(t, "not_ready", decode[map[string]interface{}](t, rr)["status"])
}

func TestReadyAfterRefresh(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/readyz", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, "1", rr.Header().Get(HeaderGeneration))
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/status", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_"))

	status := decode[services.Status](t, rr)
	assert.Equal(t, services.StateReady, status.State)
	assert.Equal(t, 4, status.EntryCount)
}

func TestViewsUnavailableBeforeFirstFetch(t *testing.T) {
	env := newTestEnv(t, mock_ledger.NewMockBackend(gomock.NewController(t)))

	for _, path := range []string{"/api/trips", "/api/summary/revenue", "/api/drivers", "/api/fuel-inconsistencies", "/api/excluded"} {
		rr := env.do(http.MethodGet, path, "")
		requireStatus(t, rr, http.StatusServiceUnavailable)
		assert.Equal(t, "30", rr.Header().Get("Retry-After"), path)
		body := decode[ErrorBody](t, rr)
		assert.True(t, body.Retry, path)
		assert.Equal(t, "ledger is loading", body.Error)
	}
}

func TestRefreshFailureReportsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mock_ledger.NewMockBackend(ctrl)
	backend.EXPECT().ListEntries(gomock.Any()).
		Return(nil, &ledger.UnavailableError{Op: "list entries", StatusCode: 502})
	env := newTestEnv(t, backend)

	rr := env.do(http.MethodPost, "/api/refresh", "")
	requireStatus(t, rr, http.StatusServiceUnavailable)
	status := decode[services.Status](t, rr)
	assert.Equal(t, services.StateUnavailable, status.State)
	assert.Contains(t, status.Error, "502")

	rr = env.do(http.MethodGet, "/api/trips", "")
	requireStatus(t, rr, http.StatusServiceUnavailable)
	assert.Contains(t, decode[ErrorBody](t, rr).Error, "ledger unavailable")
}

func TestRefresh(t *testing.T) {
	env := newReadyEnv(t)
	env.store.Add(haul("9", "QQQ999", "2024-02-01", "Corn", "Ana", "700"))

	rr := env.do(http.MethodPost, "/api/refresh", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, int64(2), decode[services.Status](t, rr).Generation)

	rr = env.do(http.MethodGet, "/api/trips?plate=qqq-999", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, 1, decode[tripList](t, rr).Count)
}

func TestListTrips(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/trips", "")
	requireStatus(t, rr, http.StatusOK)
	list := decode[tripList](t, rr)
	require.Equal(t, 3, list.Count)
	assert.Equal(t, "XYZ001", list.Trips[0].PlateNumber)
	assert.Equal(t, "2024-01-05", list.Trips[0].Date)

	rr = env.do(http.MethodGet, "/api/trips?plate=xyz%20001", "")
	requireStatus(t, rr, http.StatusOK)
	list = decode[tripList](t, rr)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Pedro", list.Trips[0].Driver)
	assert.Equal(t, "500", list.Trips[0].Allowance.String())

	rr = env.do(http.MethodGet, "/api/trips?from=2024-01-06&to=2024-01-06", "")
	requireStatus(t, rr, http.StatusOK)
	list = decode[tripList](t, rr)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "ABC123", list.Trips[0].PlateNumber)
}

func TestListTripsRejectsBadFilter(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/trips?from=yesterday", "")
	requireStatus(t, rr, http.StatusBadRequest)

	rr = env.do(http.MethodGet, "/api/trips?from=2024-02-01&to=2024-01-01", "")
	requireStatus(t, rr, http.StatusBadRequest)
}

func TestListTripsCacheInvalidatedByEdit(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/trips?plate=XYZ001", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, "Pedro", decode[tripList](t, rr).Trips[0].Driver)

	rr = env.do(http.MethodPost, "/api/trips/field", `{"plate_number":"XYZ001","date":"2024-01-05","field":"driver","value":"Mario"}`)
	requireStatus(t, rr, http.StatusOK)

	rr = env.do(http.MethodGet, "/api/trips?plate=XYZ001", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, "Mario", decode[tripList](t, rr).Trips[0].Driver)
}

func TestGetTrip(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/trips/abc-123/2024-01-06", "")
	requireStatus(t, rr, http.StatusOK)
	trip := decode[core.Trip](t, rr)
	assert.Equal(t, "Juan", trip.Driver)
	assert.Equal(t, "Rice", trip.FrontLoad)

	rr = env.do(http.MethodGet, "/api/trips/ABC123/2023-12-31", "")
	requireStatus(t, rr, http.StatusNotFound)

	rr = env.do(http.MethodGet, "/api/trips/ABC123/not-a-date", "")
	requireStatus(t, rr, http.StatusBadRequest)
}

func TestGetTripHidesEmptyTrip(t *testing.T) {
	env := newReadyEnvWith(t, []core.LedgerEntry{
		entry("1", "EMP001", "2024-03-01", "Office Supplies", "120"),
	})

	rr := env.do(http.MethodGet, "/api/trips", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, 0, decode[tripList](t, rr).Count)

	rr = env.do(http.MethodGet, "/api/trips/EMP001/2024-03-01", "")
	requireStatus(t, rr, http.StatusNotFound)
}

func TestSummaryViews(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodGet, "/api/summary/revenue", "")
	requireStatus(t, rr, http.StatusOK)
	revenue := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "1900", revenue["gross_revenue"])

	rr = env.do(http.MethodGet, "/api/drivers", "")
	requireStatus(t, rr, http.StatusOK)
	drivers := decode[map[string][]map[string]interface{}](t, rr)["drivers"]
	assert.Len(t, drivers, 3, "Pedro, Juan and the unassigned allowance")

	rr = env.do(http.MethodGet, "/api/fuel-inconsistencies", "")
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, `{"inconsistencies":[]}`, strings.TrimSpace(rr.Body.String()))

	rr = env.do(http.MethodGet, "/api/excluded", "")
	requireStatus(t, rr, http.StatusOK)
	excluded := decode[map[string][]core.LedgerEntry](t, rr)["excluded"]
	require.Len(t, excluded, 1)
	assert.Equal(t, core.EntryID("5"), excluded[0].ID)
}

func TestEditField(t *testing.T) {
	env := newReadyEnv(t)

	rr := env.do(http.MethodPost, "/api/trips/field", "plate_number=abc+123&date=2024-01-06&field=back_load&value=Strike")
	requireStatus(t, rr, http.StatusOK)
	trip := decode[core.Trip](t, rr)
	assert.Equal(t, "Strike", trip.BackLoad)
	assert.Equal(t, "ABC123", trip.PlateNumber)

	entries, err := env.store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Strike", entries[2].BackLoad.Name)
}

func TestEditFieldValidation(t *testing.T) {
	env := newReadyEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing value", `{"plate_number":"XYZ001","date":"2024-01-05","field":"driver"}`, http.StatusBadRequest},
		{"unknown field", `{"plate_number":"XYZ001","date":"2024-01-05","field":"company","value":"x"}`, http.StatusBadRequest},
		{"bad date", `{"plate_number":"XYZ001","date":"soon","field":"driver","value":"x"}`, http.StatusBadRequest},
		{"unknown trip", `{"plate_number":"XYZ001","date":"2020-01-01","field":"driver","value":"x"}`, http.StatusNotFound},
		{"malformed json", `{"plate_number":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/trips/field", tt.body)
			requireStatus(t, rr, tt.want)
		})
	}
}

func TestEditFieldRejectedByLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mock_ledger.NewMockBackend(ctrl)
	backend.EXPECT().ListEntries(gomock.Any()).Return(testLedger(), nil)
	backend.EXPECT().UpdateTripField(gomock.Any(), gomock.Any()).
		Return(&ledger.MutationError{Op: "update trip field", StatusCode: 400, Message: "driver is archived"})

	env := newTestEnv(t, backend)
	_, err := env.ledger.Refresh(context.Background(), services.ReasonStartup)
	require.NoError(t, err)

	rr := env.do(http.MethodPost, "/api/trips/field", `{"plate_number":"XYZ001","date":"2024-01-05","field":"driver","value":"Mario"}`)
	requireStatus(t, rr, http.StatusUnprocessableEntity)
	body := decode[ErrorBody](t, rr)
	assert.Equal(t, "driver is archived", body.Error)
	assert.Equal(t, "ledger_rejected", body.Code)

	trip, ok := env.ledger.Views().Trip(core.TripKey{Plate: "XYZ001", Date: "2024-01-05"})
	require.True(t, ok)
	assert.Equal(t, "Pedro", trip.Driver, "edit rolled back")
}

func TestMetrics(t *testing.T) {
	env := newReadyEnv(t)
	env.do(http.MethodGet, "/api/trips", "")
	env.do(http.MethodGet, "/api/trips", "")

	rr := env.do(http.MethodGet, "/metrics", "")
	requireStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assert.Contains(t, body, "ledger_ready 1\n")
	assert.Contains(t, body, "ledger_entries 4\n")
	assert.Contains(t, body, "ledger_generation 1\n")
	assert.Contains(t, body, "trip_cache_hits_total 1\n")
	assert.Contains(t, body, "trip_cache_misses_total 1\n")
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	env := newReadyEnv(t, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		requireStatus(t, env.do(http.MethodPost, "/api/refresh", ""), http.StatusOK)
	}
	rr := env.do(http.MethodPost, "/api/refresh", "")
	requireStatus(t, rr, http.StatusTooManyRequests)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	requireStatus(t, env.do(http.MethodGet, "/api/status", ""), http.StatusOK)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newReadyEnv(t)
	rr := env.do(http.MethodDelete, "/api/trips", "")
	requireStatus(t, rr, http.StatusMethodNotAllowed)
}
