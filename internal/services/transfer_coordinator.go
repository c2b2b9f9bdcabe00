package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tripledger/internal/amqp"
	"tripledger/internal/core"
	"tripledger/internal/ledger"
	"tripledger/internal/storage"
)

// TransferState is a step of the allowance transfer workflow.
type TransferState string

const (
	TransferIdle       TransferState = "idle"
	TransferProposed   TransferState = "proposed"
	TransferPreviewing TransferState = "previewing"
	TransferConfirming TransferState = "confirming"
	TransferCommitting TransferState = "committing"
)

// TransferProposal is the pending move of allowance entries between two trips.
type TransferProposal struct {
	ID               string             `json:"id"`
	State            TransferState      `json:"state"`
	Source           core.TripKey       `json:"source"`
	Target           core.TripKey       `json:"target"`
	SourceAllowances []core.LedgerEntry `json:"source_allowances"`
	TargetAllowances []core.LedgerEntry `json:"target_allowances"`
	SourceTotal      decimal.Decimal    `json:"source_total"`
	TargetTotal      decimal.Decimal    `json:"target_total"`
	CreatedAt        time.Time          `json:"created_at"`
}

func (p TransferProposal) clone() TransferProposal {
	c := p
	c.SourceAllowances = append([]core.LedgerEntry(nil), p.SourceAllowances...)
	c.TargetAllowances = append([]core.LedgerEntry(nil), p.TargetAllowances...)
	return c
}

// TransferResult reports a committed transfer. RefreshError is set when the
// backend accepted the move but the views could not be rebuilt afterwards.
type TransferResult struct {
	ProposalID   string               `json:"proposal_id"`
	Request      core.TransferRequest `json:"request"`
	Transferred  int                  `json:"transferred"`
	Status       Status               `json:"status"`
	RefreshError string               `json:"refresh_error,omitempty"`
}

// TransferCoordinator drives one allowance transfer at a time through
// idle → proposed → previewing → confirming → committing → idle.
// Nothing reaches the backend before Commit, so cancelling earlier has no
// side effects.
type TransferCoordinator struct {
	backend ledger.Backend
	ledger  *LedgerService
	now     func() time.Time

	mu      sync.Mutex
	state   TransferState
	pending *TransferProposal
}

// NewTransferCoordinator shares the notifier, audit store and clock of svc.
func NewTransferCoordinator(backend ledger.Backend, svc *LedgerService) *TransferCoordinator {
	return &TransferCoordinator{
		backend: backend,
		ledger:  svc,
		now:     svc.now,
		state:   TransferIdle,
	}
}

func (c *TransferCoordinator) State() TransferState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the current proposal, if any.
func (c *TransferCoordinator) Pending() (TransferProposal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return TransferProposal{}, false
	}
	return c.pending.clone(), true
}

// Propose starts a new proposal, replacing any pending one that has not
// reached committing.
func (c *TransferCoordinator) Propose(source, target core.TripKey) (TransferProposal, error) {
	src, err := normalizeKey(source)
	if err != nil {
		return TransferProposal{}, fmt.Errorf("source: %w", err)
	}
	dst, err := normalizeKey(target)
	if err != nil {
		return TransferProposal{}, fmt.Errorf("target: %w", err)
	}
	if src == dst {
		return TransferProposal{}, ErrSameTrip
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == TransferCommitting {
		return TransferProposal{}, fmt.Errorf("propose while %s: %w", c.state, ErrInvalidTransition)
	}
	c.pending = &TransferProposal{
		ID:               uuid.NewString(),
		State:            TransferProposed,
		Source:           src,
		Target:           dst,
		SourceAllowances: []core.LedgerEntry{},
		TargetAllowances: []core.LedgerEntry{},
		SourceTotal:      decimal.Zero,
		TargetTotal:      decimal.Zero,
		CreatedAt:        c.now(),
	}
	c.state = TransferProposed
	return c.pending.clone(), nil
}

// Preview fetches the ledger and lists the Driver's Allowance entries of
// both trips. It may be repeated while confirming.
func (c *TransferCoordinator) Preview(ctx context.Context) (TransferProposal, error) {
	c.mu.Lock()
	if c.pending == nil || (c.state != TransferProposed && c.state != TransferConfirming) {
		state := c.state
		c.mu.Unlock()
		return TransferProposal{}, fmt.Errorf("preview while %s: %w", state, ErrInvalidTransition)
	}
	id := c.pending.ID
	source, target := c.pending.Source, c.pending.Target
	c.state = TransferPreviewing
	c.pending.State = TransferPreviewing
	c.mu.Unlock()

	entries, err := c.backend.ListEntries(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.ID != id {
		return TransferProposal{}, ErrTransferCancelled
	}
	if err != nil {
		c.state = TransferProposed
		c.pending.State = TransferProposed
		slog.WarnContext(ctx, "Failed to load allowances for transfer preview",
			"proposal_id", id, "error", err)
		return TransferProposal{}, fmt.Errorf("preview transfer: %w", err)
	}

	c.pending.SourceAllowances, c.pending.SourceTotal = allowancesOf(entries, source)
	c.pending.TargetAllowances, c.pending.TargetTotal = allowancesOf(entries, target)
	c.state = TransferConfirming
	c.pending.State = TransferConfirming
	return c.pending.clone(), nil
}

// Commit moves the selected source allowance entries to the target trip,
// then refetches the ledger so every view reflects the move. On failure the
// proposal is discarded and nothing local changes.
func (c *TransferCoordinator) Commit(ctx context.Context, ids []core.EntryID) (TransferResult, error) {
	c.mu.Lock()
	if c.state != TransferConfirming || c.pending == nil {
		state := c.state
		c.mu.Unlock()
		return TransferResult{}, fmt.Errorf("commit while %s: %w", state, ErrInvalidTransition)
	}
	selected, err := selectEntries(c.pending.SourceAllowances, ids)
	if err != nil {
		c.mu.Unlock()
		return TransferResult{}, err
	}
	proposal := c.pending.clone()
	req, err := core.NewTransferRequest(proposal.Source, proposal.Target, selected)
	if err != nil {
		c.mu.Unlock()
		return TransferResult{}, fmt.Errorf("build transfer request: %w", err)
	}
	c.state = TransferCommitting
	c.pending.State = TransferCommitting
	c.mu.Unlock()

	n, err := c.backend.TransferAllowances(ctx, req)
	c.finish()

	rec := storage.TransferRecord{
		ID:          proposal.ID,
		Request:     req,
		Transferred: n,
		Status:      storage.StatusSucceeded,
		CreatedAt:   c.now(),
	}
	if err != nil {
		rec.Status = storage.StatusFailed
		rec.Transferred = 0
		rec.Error = ledger.UserMessage(err)
		c.journal(ctx, rec)
		slog.ErrorContext(ctx, "Allowance transfer failed",
			"proposal_id", proposal.ID,
			"source_trip", proposal.Source.String(),
			"target_trip", proposal.Target.String(),
			"error", err)
		return TransferResult{}, fmt.Errorf("transfer allowances: %w", err)
	}
	c.journal(ctx, rec)

	slog.InfoContext(ctx, "Allowance transfer committed",
		"proposal_id", proposal.ID,
		"source_trip", proposal.Source.String(),
		"target_trip", proposal.Target.String(),
		"transferred", n)

	result := TransferResult{
		ProposalID:  proposal.ID,
		Request:     req,
		Transferred: n,
	}
	status, refreshErr := c.ledger.Reload(ctx, amqp.ReasonAllowanceTransfer)
	result.Status = status
	if refreshErr != nil {
		result.RefreshError = refreshErr.Error()
	}
	if err := c.ledger.publish(ctx, amqp.ReasonAllowanceTransfer, proposal.Source, proposal.Target); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"proposal_id", proposal.ID, "error", err)
		// Don't fail the request - the backend has the change
	}
	return result, nil
}

// Cancel discards the pending proposal. It is a no-op when idle.
func (c *TransferCoordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == TransferCommitting {
		return fmt.Errorf("cancel while %s: %w", c.state, ErrInvalidTransition)
	}
	c.pending = nil
	c.state = TransferIdle
	return nil
}

func (c *TransferCoordinator) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.state = TransferIdle
}

func (c *TransferCoordinator) journal(ctx context.Context, rec storage.TransferRecord) {
	if c.ledger.audit == nil {
		return
	}
	if err := c.ledger.audit.RecordTransfer(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to journal transfer", "proposal_id", rec.ID, "error", err)
	}
}

func normalizeKey(k core.TripKey) (core.TripKey, error) {
	date, err := core.NormalizeDate(k.Date)
	if err != nil {
		return core.TripKey{}, err
	}
	return core.TripKey{Plate: core.NormalizePlate(k.Plate), Date: date}, nil
}

// allowancesOf returns the non-excluded Driver's Allowance rows of key in
// ledger order, with their total.
func allowancesOf(entries []core.LedgerEntry, key core.TripKey) ([]core.LedgerEntry, decimal.Decimal) {
	out := []core.LedgerEntry{}
	total := decimal.Zero
	for _, e := range entries {
		if e.Key() != key || e.IsExcluded() || e.Category() != core.DriversAllowance {
			continue
		}
		out = append(out, e)
		total = total.Add(e.FinalTotal)
	}
	return out, total
}

// selectEntries checks ids against the previewed source allowances and
// returns them deduplicated, in the order given.
func selectEntries(allowed []core.LedgerEntry, ids []core.EntryID) ([]core.EntryID, error) {
	if len(ids) == 0 {
		return nil, ErrNoEntriesSelected
	}
	known := make(map[string]bool, len(allowed))
	for _, e := range allowed {
		known[e.ID.String()] = true
	}
	seen := make(map[string]bool, len(ids))
	out := make([]core.EntryID, 0, len(ids))
	for _, id := range ids {
		s := id.String()
		if !known[s] {
			return nil, fmt.Errorf("entry %s: %w", s, ErrUnknownEntry)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, id)
	}
	return out, nil
}
