// Package sheets exports the dashboard views to spreadsheets.
package sheets

import (
	"context"
	"time"

	"tripledger/internal/aggregate"
	"tripledger/internal/core"
)

// Report is one export of the views.
type Report struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Generation  int64                      `json:"generation"`
	Trips       []core.Trip                `json:"trips"`
	Revenue     aggregate.RevenueSummary   `json:"revenue"`
	Drivers     []aggregate.DriverEarnings `json:"drivers"`
}

// NewReport captures the presented trips and summaries of v.
func NewReport(v aggregate.Views, generation int64, at time.Time) Report {
	return Report{
		GeneratedAt: at,
		Generation:  generation,
		Trips:       v.PresentedTrips(),
		Revenue:     v.Revenue,
		Drivers:     v.Drivers,
	}
}

// Ports for outbound adapters.
type (
	// ReportWriter replaces the exported report with r and returns a
	// reference to the written range.
	ReportWriter interface {
		WriteReport(ctx context.Context, r Report) (ref string, err error)
	}
)
