package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tripledger/internal/aggregate"
	"tripledger/internal/amqp"
	"tripledger/internal/core"
	"tripledger/internal/ledger"
	"tripledger/internal/storage"
)

// SnapshotState describes whether views are available.
type SnapshotState string

const (
	StateLoading     SnapshotState = "loading"
	StateReady       SnapshotState = "ready"
	StateUnavailable SnapshotState = "unavailable"
)

// Refresh reasons recorded with each aggregation run.
const (
	ReasonStartup = "startup"
	ReasonTick    = "tick"
	ReasonRequest = "request"
)

// Status reports the outcome of the latest published fetch.
type Status struct {
	State      SnapshotState `json:"state"`
	Error      string        `json:"error,omitempty"`
	Generation int64         `json:"generation"`
	FetchedAt  time.Time     `json:"fetched_at"`
	// EntryCount leaves out excluded opening-balance rows.
	EntryCount int `json:"entry_count"`
}

// LedgerServiceOption configures optional collaborators.
type LedgerServiceOption func(*LedgerService)

// WithNotifier publishes a change event after every successful mutation.
func WithNotifier(n Notifier) LedgerServiceOption {
	return func(s *LedgerService) { s.notifier = n }
}

// WithAudit records refresh runs and field edits.
func WithAudit(a AuditRecorder) LedgerServiceOption {
	return func(s *LedgerService) { s.audit = a }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) { s.now = now }
}

// LedgerService owns the current ledger snapshot and the views derived from
// it. Views are rebuilt from scratch on every fetch; the only in-place change
// is an optimistic field edit, which is rolled back if the backend refuses it.
type LedgerService struct {
	backend  ledger.Backend
	notifier Notifier
	audit    AuditRecorder
	now      func() time.Time

	group  singleflight.Group
	issued atomic.Int64

	mu        sync.RWMutex
	views     aggregate.Views
	entries   []core.LedgerEntry
	status    Status
	version   int64
	listeners []func(Status)

	editMu   sync.Mutex
	inFlight map[core.TripKey]struct{}
}

func NewLedgerService(backend ledger.Backend, opts ...LedgerServiceOption) *LedgerService {
	s := &LedgerService{
		backend:  backend,
		now:      time.Now,
		status:   Status{State: StateLoading},
		inFlight: make(map[core.TripKey]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after the views are replaced, including
// optimistic edits and their rollbacks.
func (s *LedgerService) OnChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Views returns the current views. The result is shared; do not modify it.
func (s *LedgerService) Views() aggregate.Views {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views
}

func (s *LedgerService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Entries returns a copy of the entries the views were built from.
func (s *LedgerService) Entries() []core.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.LedgerEntry(nil), s.entries...)
}

// Refresh fetches the ledger and rebuilds every view. Concurrent callers
// share one fetch.
func (s *LedgerService) Refresh(ctx context.Context, reason string) (Status, error) {
	v, err, shared := s.group.Do("refresh", func() (interface{}, error) {
		return s.Reload(ctx, reason)
	})
	if shared {
		slog.DebugContext(ctx, "Joined in-flight ledger refresh", "reason", reason)
	}
	return v.(Status), err
}

// Reload always starts a new fetch. Mutations use it so the views they
// publish are read after the write.
func (s *LedgerService) Reload(ctx context.Context, reason string) (Status, error) {
	gen := s.issued.Add(1)
	started := s.now()

	entries, err := s.backend.ListEntries(ctx)
	if err != nil {
		return s.publishFailure(ctx, gen, reason, started, err)
	}

	views := aggregate.Build(entries)
	run := storage.AggregationRun{
		ID:            uuid.NewString(),
		Generation:    gen,
		Reason:        reason,
		Status:        storage.StatusSucceeded,
		EntryCount:    int64(len(entries)),
		TripCount:     int64(len(views.Trips)),
		ExcludedCount: int64(len(views.Excluded)),
		FuelFlagCount: int64(len(views.FuelInconsistencies)),
		GrossRevenue:  views.Revenue.GrossRevenue.String(),
		NetIncome:     views.Revenue.NetIncome.String(),
		StartedAt:     started,
		FinishedAt:    s.now(),
	}

	s.mu.Lock()
	if gen < s.status.Generation {
		current := s.status
		s.mu.Unlock()
		slog.InfoContext(ctx, "Discarding superseded ledger fetch",
			"generation", gen, "published", current.Generation)
		run.Status = storage.StatusDiscarded
		s.recordRun(ctx, run, nil)
		return current, nil
	}
	s.views = views
	s.entries = entries
	s.status = Status{
		State:      StateReady,
		Generation: gen,
		FetchedAt:  run.FinishedAt,
		EntryCount: views.EntryCount,
	}
	s.version++
	status := s.status
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, status)
	slog.InfoContext(ctx, "Ledger views rebuilt",
		"generation", gen,
		"reason", reason,
		"entries", len(entries),
		"trips", len(views.Trips),
		"excluded", len(views.Excluded),
		"fuel_flags", len(views.FuelInconsistencies))
	s.recordRun(ctx, run, views.Excluded)
	return status, nil
}

func (s *LedgerService) publishFailure(ctx context.Context, gen int64, reason string, started time.Time, cause error) (Status, error) {
	run := storage.AggregationRun{
		ID:           uuid.NewString(),
		Generation:   gen,
		Reason:       reason,
		Status:       storage.StatusFailed,
		Error:        cause.Error(),
		GrossRevenue: "0",
		NetIncome:    "0",
		StartedAt:    started,
		FinishedAt:   s.now(),
	}

	s.mu.Lock()
	if gen < s.status.Generation {
		current := s.status
		s.mu.Unlock()
		run.Status = storage.StatusDiscarded
		s.recordRun(ctx, run, nil)
		return current, nil
	}
	s.views = aggregate.Views{}
	s.entries = nil
	s.status = Status{
		State:      StateUnavailable,
		Error:      cause.Error(),
		Generation: gen,
		FetchedAt:  run.FinishedAt,
	}
	s.version++
	status := s.status
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, status)
	if errors.Is(cause, ledger.ErrUnavailable) {
		slog.WarnContext(ctx, "Ledger unavailable", "generation", gen, "error", cause)
	} else {
		slog.ErrorContext(ctx, "Failed to fetch ledger", "generation", gen, "error", cause)
	}
	s.recordRun(ctx, run, nil)
	return status, fmt.Errorf("refresh ledger: %w", cause)
}

// EditTripField sets one editable field of a trip. The change is visible in
// Views immediately; if the backend refuses it the pre-edit snapshot is
// restored and the backend's error is returned.
func (s *LedgerService) EditTripField(ctx context.Context, key core.TripKey, field core.TripField, value string) (core.Trip, error) {
	key.Plate = core.NormalizePlate(key.Plate)
	update, err := core.NewFieldUpdate(key, field, value)
	if err != nil {
		return core.Trip{}, err
	}
	key.Date = update.Date

	if !s.acquire(key) {
		return core.Trip{}, fmt.Errorf("trip %s: %w", key, ErrEditInFlight)
	}
	defer s.release(key)

	s.mu.Lock()
	if s.status.State != StateReady {
		s.mu.Unlock()
		return core.Trip{}, ErrNoSnapshot
	}
	snapshot := s.views
	generation := s.status.Generation
	idx := -1
	for i, t := range snapshot.Trips {
		if t.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Trip{}, fmt.Errorf("trip %s: %w", key, ErrTripNotFound)
	}
	trips := snapshot.CloneTrips()
	oldValue := trips[idx].Field(field)
	_ = trips[idx].Apply(field, update.Value)
	edited := trips[idx].Clone()
	next := snapshot
	next.Trips = trips
	s.views = next
	s.version++
	applied := s.version
	status := s.status
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, status)

	edit := storage.FieldEdit{
		PlateNumber: key.Plate,
		Date:        key.Date,
		Field:       string(field),
		OldValue:    oldValue,
		NewValue:    update.Value,
		Status:      storage.StatusSucceeded,
	}

	if err := s.backend.UpdateTripField(ctx, update); err != nil {
		s.rollbackEdit(ctx, key, field, oldValue, snapshot, applied, generation)
		slog.ErrorContext(ctx, "Failed to update trip field",
			"plate_number", key.Plate, "date", key.Date, "trip_field", field, "error", err)
		edit.Status = storage.StatusFailed
		edit.Error = ledger.UserMessage(err)
		s.recordEdit(ctx, edit)
		return core.Trip{}, fmt.Errorf("update %s of trip %s: %w", field, key, err)
	}

	s.recordEdit(ctx, edit)
	if err := s.publish(ctx, amqp.ReasonFieldEdit, key); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"plate_number", key.Plate, "date", key.Date, "error", err)
		// Don't fail the request - the backend has the change
	}
	return edited, nil
}

// rollbackEdit restores the pre-edit snapshot when nothing else replaced the
// views since. If another trip was edited meanwhile only this trip's field is
// reverted; if a newer fetch landed its data already reflects the backend.
func (s *LedgerService) rollbackEdit(ctx context.Context, key core.TripKey, field core.TripField, oldValue string, snapshot aggregate.Views, applied, generation int64) {
	s.mu.Lock()
	switch {
	case s.version == applied:
		s.views = snapshot
	case s.status.Generation == generation:
		trips := s.views.CloneTrips()
		for i := range trips {
			if trips[i].Key() == key {
				_ = trips[i].Apply(field, oldValue)
			}
		}
		next := s.views
		next.Trips = trips
		s.views = next
	default:
		s.mu.Unlock()
		slog.DebugContext(ctx, "Skipping rollback, views were refetched", "plate_number", key.Plate, "date", key.Date)
		return
	}
	s.version++
	status := s.status
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, status)
}

func (s *LedgerService) acquire(key core.TripKey) bool {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *LedgerService) release(key core.TripKey) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	delete(s.inFlight, key)
}

func (s *LedgerService) publish(ctx context.Context, reason string, keys ...core.TripKey) error {
	if s.notifier == nil {
		slog.DebugContext(ctx, "No notifier configured, skipping ledger change event")
		return nil
	}
	return s.notifier.PublishLedgerChanged(ctx, reason, keys...)
}

func (s *LedgerService) recordRun(ctx context.Context, run storage.AggregationRun, excluded []core.LedgerEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordRun(ctx, run, excluded); err != nil {
		slog.ErrorContext(ctx, "Failed to record aggregation run", "run_id", run.ID, "error", err)
	}
}

func (s *LedgerService) recordEdit(ctx context.Context, e storage.FieldEdit) {
	if s.audit == nil {
		return
	}
	e.CreatedAt = s.now()
	if err := s.audit.RecordFieldEdit(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to journal field edit", "error", err)
	}
}

func notify(listeners []func(Status), status Status) {
	for _, fn := range listeners {
		fn(status)
	}
}
