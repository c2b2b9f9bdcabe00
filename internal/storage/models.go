package storage

import (
	"time"

	"tripledger/internal/core"
)

// Outcome values stored in status columns.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusDiscarded = "discarded"
)

// AggregationRun is one refresh of the views.
type AggregationRun struct {
	ID            string    `json:"id"`
	Generation    int64     `json:"generation"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	EntryCount    int64     `json:"entry_count"`
	TripCount     int64     `json:"trip_count"`
	ExcludedCount int64     `json:"excluded_count"`
	FuelFlagCount int64     `json:"fuel_flag_count"`
	GrossRevenue  string    `json:"gross_revenue"`
	NetIncome     string    `json:"net_income"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// ExcludedEntry is a row kept out of a run's views.
type ExcludedEntry struct {
	RunID       string `json:"run_id"`
	EntryID     string `json:"entry_id"`
	PlateNumber string `json:"plate_number"`
	Date        string `json:"date"`
	AccountType string `json:"account_type"`
	FinalTotal  string `json:"final_total"`
	Description string `json:"description"`
}

// NewExcludedEntry captures the fields an auditor needs.
func NewExcludedEntry(runID string, e core.LedgerEntry) ExcludedEntry {
	return ExcludedEntry{
		RunID:       runID,
		EntryID:     e.ID.String(),
		PlateNumber: e.Key().Plate,
		Date:        e.Date.String(),
		AccountType: e.AccountType.String(),
		FinalTotal:  e.FinalTotal.String(),
		Description: e.Description,
	}
}

// TransferRecord journals one committed or failed allowance transfer.
type TransferRecord struct {
	ID          string               `json:"id"`
	Request     core.TransferRequest `json:"request"`
	Transferred int                  `json:"transferred"`
	Status      string               `json:"status"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type transferRow struct {
	ID          string
	SourcePlate string
	SourceDate  string
	TargetPlate string
	TargetDate  string
	EntryIDs    string
	Requested   int64
	Transferred int64
	Status      string
	Error       string
	CreatedAt   time.Time
}

// FieldEdit journals one trip field edit attempt.
type FieldEdit struct {
	ID          int64     `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Date        string    `json:"date"`
	Field       string    `json:"field"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
