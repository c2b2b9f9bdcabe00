// Package memory is an in-process ledger backend seeded from a JSON file.
// It applies field edits and allowance transfers to its own rows, so a full
// refresh after a mutation shows the change.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"tripledger/internal/core"
	"tripledger/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	entries []core.LedgerEntry
}

var _ ledger.Backend = (*Store)(nil)

func New(entries []core.LedgerEntry) *Store {
	return &Store{entries: append([]core.LedgerEntry(nil), entries...)}
}

// NewFromFile loads a JSON array of ledger rows. An empty path yields an
// empty ledger.
func NewFromFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger seed: %w", err)
	}
	var entries []core.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode ledger seed %s: %w", path, err)
	}
	return New(entries), nil
}

// ListEntries returns a copy of the rows in insertion order.
func (s *Store) ListEntries(_ context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry(nil), s.entries...), nil
}

// Add appends rows.
func (s *Store) Add(entries ...core.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// UpdateTripField sets the field on every row of the trip. Load names are
// only written to hauling rows, which are the rows that carry them.
func (s *Store) UpdateTripField(_ context.Context, u core.FieldUpdate) error {
	const op = "update trip field"
	if err := u.Field.Validate(); err != nil {
		return &ledger.MutationError{Op: op, Message: err.Error(), Err: err}
	}
	key, err := core.ParseTripKey(u.Plate, u.Date)
	if err != nil {
		return &ledger.MutationError{Op: op, Message: "invalid trip date", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := core.NameRef{Name: u.Value}
	matched := 0
	for i := range s.entries {
		e := &s.entries[i]
		if e.Key() != key {
			continue
		}
		switch u.Field {
		case core.FieldDriver:
			e.Driver = ref
		case core.FieldRoute:
			e.Route = ref
		case core.FieldFrontLoad:
			if e.Category() != core.HaulingIncome {
				continue
			}
			e.FrontLoad = ref
		case core.FieldBackLoad:
			if e.Category() != core.HaulingIncome {
				continue
			}
			e.BackLoad = ref
		}
		matched++
	}
	if matched == 0 {
		return &ledger.MutationError{Op: op, Message: fmt.Sprintf("no ledger rows for trip %s", key)}
	}
	return nil
}

// TransferAllowances re-keys the listed Driver's-Allowance rows of the source
// trip to the target trip. IDs that do not name such a row are ignored.
func (s *Store) TransferAllowances(_ context.Context, r core.TransferRequest) (int, error) {
	const op = "transfer allowances"
	source, target := r.Source(), r.Target()
	targetDate, err := core.ParseDate(r.TargetDate)
	if err != nil {
		return 0, &ledger.MutationError{Op: op, Message: "invalid target date", Err: err}
	}

	wanted := make(map[core.EntryID]struct{}, len(r.EntryIDs))
	for _, id := range r.EntryIDs {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for i := range s.entries {
		e := &s.entries[i]
		if _, ok := wanted[e.ID]; !ok {
			continue
		}
		if e.Category() != core.DriversAllowance || e.Key() != source {
			continue
		}
		e.PlateNumber = r.TargetPlate
		e.Truck.PlateNumber = r.TargetPlate
		e.Date = targetDate
		moved++
	}
	if moved == 0 {
		return 0, &ledger.MutationError{Op: op, Message: fmt.Sprintf("no allowance entries of %s to move to %s", source, target)}
	}
	return moved, nil
}
