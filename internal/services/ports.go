package services

import (
	"context"
	"errors"

	"tripledger/internal/core"
	"tripledger/internal/storage"
)

var (
	ErrEditInFlight      = errors.New("an edit for this trip is already in flight")
	ErrInvalidTransition = errors.New("invalid transfer state transition")
	ErrSameTrip          = errors.New("source and target trips are the same")
	ErrTransferCancelled = errors.New("transfer proposal was cancelled")
	ErrNoEntriesSelected = errors.New("no allowance entries selected")
	ErrUnknownEntry      = errors.New("entry is not an allowance of the source trip")
	ErrNoSnapshot        = errors.New("no ledger snapshot loaded")
	ErrTripNotFound      = errors.New("trip not found")
	ErrInvalidField      = core.ErrInvalidField
)

// Notifier announces ledger mutations to other processes.
type Notifier interface {
	PublishLedgerChanged(ctx context.Context, reason string, keys ...core.TripKey) error
}

// AuditRecorder persists what the services did.
type AuditRecorder interface {
	RecordRun(ctx context.Context, run storage.AggregationRun, excluded []core.LedgerEntry) error
	RecordFieldEdit(ctx context.Context, e storage.FieldEdit) error
	RecordTransfer(ctx context.Context, rec storage.TransferRecord) error
}

var _ AuditRecorder = (*storage.SQLiteRepository)(nil)
