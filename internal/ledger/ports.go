// Package ledger defines the boundary to the external accounting backend: a
// wholesale entry listing plus the two mutation sinks.
package ledger

//go:generate mockgen -destination=mocks/mock_ports.go -source=ports.go

import (
	"context"

	"tripledger/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryLister returns the complete ledger in backend order.
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
	}

	// FieldUpdater persists one editable trip field. An empty value clears it.
	FieldUpdater interface {
		UpdateTripField(ctx context.Context, u core.FieldUpdate) error
	}

	// AllowanceTransferer moves allowance entries between trips and returns
	// how many the backend moved.
	AllowanceTransferer interface {
		TransferAllowances(ctx context.Context, r core.TransferRequest) (int, error)
	}

	// Backend is everything the engine needs from the ledger.
	Backend interface {
		EntryLister
		FieldUpdater
		AllowanceTransferer
	}
)
