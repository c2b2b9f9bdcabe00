package services

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"tripledger/internal/core"
	"tripledger/internal/storage"
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

func allowance(id, plate, date, total string) core.LedgerEntry {
	return entry(id, plate, date, "Driver's Allowance", total)
}

func testLedger() []core.LedgerEntry {
	return []core.LedgerEntry{
		haul("1", "XYZ 001", "2024-01-05", "Sacks", "Pedro", "1000"),
		allowance("2", "xyz001", "2024-01-05", "500"),
		haul("3", "ABC-123", "2024-01-06", "Rice", "", "900"),
	}
}

var (
	tripXYZ = core.TripKey{Plate: "XYZ001", Date: "2024-01-05"}
	tripABC = core.TripKey{Plate: "ABC123", Date: "2024-01-06"}
)

type notified struct {
	reason string
	keys   []core.TripKey
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
	err    error
}

func (n *recordingNotifier) PublishLedgerChanged(_ context.Context, reason string, keys ...core.TripKey) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{reason: reason, keys: keys})
	return n.err
}

func (n *recordingNotifier) Events() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notified(nil), n.events...)
}

type fakeAudit struct {
	mu        sync.Mutex
	runs      []storage.AggregationRun
	excluded  map[string][]core.LedgerEntry
	edits     []storage.FieldEdit
	transfers []storage.TransferRecord
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{excluded: make(map[string][]core.LedgerEntry)}
}

func (a *fakeAudit) RecordRun(_ context.Context, run storage.AggregationRun, excluded []core.LedgerEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, run)
	a.excluded[run.ID] = excluded
	return nil
}

func (a *fakeAudit) RecordFieldEdit(_ context.Context, e storage.FieldEdit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edits = append(a.edits, e)
	return nil
}

func (a *fakeAudit) RecordTransfer(_ context.Context, rec storage.TransferRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transfers = append(a.transfers, rec)
	return nil
}

func (a *fakeAudit) Runs() []storage.AggregationRun {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]storage.AggregationRun(nil), a.runs...)
}
