package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tripledger/internal/core"
	"tripledger/internal/ledger"
	"tripledger/internal/ledger/memory"
	"tripledger/internal/services"
)

func entry(id, plate, date, account, total string) core.LedgerEntry {
	d, _ := core.ParseDate(date)
	return core.LedgerEntry{
		ID:          core.EntryID(id),
		PlateNumber: plate,
		Date:        d,
		AccountType: core.NameRef{Name: account},
		FinalTotal:  decimal.RequireFromString(total),
	}
}

func haul(id, plate, date, front, driver, total string) core.LedgerEntry {
	e := entry(id, plate, date, "Hauling Income", total)
	e.FrontLoad = core.NameRef{Name: front}
	e.Driver = core.NameRef{Name: driver}
	return e
}

func testLedger() []core.LedgerEntry {
	return []core.LedgerEntry{
		haul("1", "XYZ 001", "2024-01-05", "Sacks", "Pedro", "1000"),
		entry("2", "xyz001", "2024-01-05", "Driver's Allowance", "500"),
		haul("3", "ABC-123", "2024-01-06", "Rice", "Juan", "900"),
		entry("4", "AAA111", "2024-01-07", "Driver's Allowance", "300"),
		beginningBalance("5", "XYZ001", "2024-01-01", "50"),
	}
}

func beginningBalance(id, plate, date, total string) core.LedgerEntry {
	e := entry(id, plate, date, "Hauling Income", total)
	e.Description = "Beginning Balance"
	return e
}

type testEnv struct {
	store     *memory.Store
	ledger    *services.LedgerService
	transfers *services.TransferCoordinator
	server    *Server
}

func newTestEnv(t *testing.T, backend ledger.Backend, opts ...Option) *testEnv {
	t.Helper()
	svc := services.NewLedgerService(backend)
	coord := services.NewTransferCoordinator(backend, svc)
	srv := NewServer(":0", svc, coord, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	env := &testEnv{ledger: svc, transfers: coord, server: srv}
	if store, ok := backend.(*memory.Store); ok {
		env.store = store
	}
	return env
}

// newReadyEnv serves testLedger from an in-memory store with one published
// snapshot.
func newReadyEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return newReadyEnvWith(t, testLedger(), opts...)
}

func newReadyEnvWith(t *testing.T, entries []core.LedgerEntry, opts ...Option) *testEnv {
	t.Helper()
	env := newTestEnv(t, memory.New(entries), opts...)
	_, err := env.ledger.Refresh(context.Background(), services.ReasonStartup)
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "203.0.113.7:51000"
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func requireStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rr.Code, "body: %s", rr.Body.String())
}
