package aggregate

import (
	"strings"

	"tripledger/internal/core"
)

// Views bundles every derived view of one ledger snapshot.
type Views struct {
	Trips               []core.Trip         `json:"trips"`
	Revenue             RevenueSummary      `json:"revenue"`
	Drivers             []DriverEarnings    `json:"drivers"`
	FuelInconsistencies []FuelInconsistency `json:"fuel_inconsistencies"`
	Excluded            []core.LedgerEntry  `json:"excluded"`
	// EntryCount counts the rows feeding the views, so Excluded is not in it.
	EntryCount int `json:"entry_count"`
}

// Build rebuilds all views from scratch.
func Build(entries []core.LedgerEntry) Views {
	tr := BuildTrips(entries)
	return Views{
		Trips:               tr.Trips,
		Revenue:             SummarizeRevenue(entries),
		Drivers:             AggregateDriverEarnings(entries),
		FuelInconsistencies: DetectFuelInconsistencies(entries),
		Excluded:            tr.Excluded,
		EntryCount:          len(entries) - len(tr.Excluded),
	}
}

// PresentedTrips returns the trips a report may show.
func (v Views) PresentedTrips() []core.Trip {
	return Presentable(v.Trips)
}

// Trip looks up a trip by key.
func (v Views) Trip(key core.TripKey) (core.Trip, bool) {
	for _, t := range v.Trips {
		if t.Key() == key {
			return t, true
		}
	}
	return core.Trip{}, false
}

// CloneTrips deep-copies the trip collection.
func (v Views) CloneTrips() []core.Trip {
	out := make([]core.Trip, len(v.Trips))
	for i, t := range v.Trips {
		out[i] = t.Clone()
	}
	return out
}

// TripFilter narrows a trip listing. Empty fields match everything; From and
// To are inclusive YYYY-MM-DD bounds.
type TripFilter struct {
	Plate string
	From  string
	To    string
}

// CacheKey renders the filter for cache lookups.
func (f TripFilter) CacheKey() string {
	return strings.Join([]string{f.Plate, f.From, f.To}, "|")
}

// Match reports whether t passes the filter. The plate is compared in
// normalized form.
func (f TripFilter) Match(t core.Trip) bool {
	if f.Plate != "" && core.NormalizePlate(f.Plate) != t.PlateNumber {
		return false
	}
	if f.From != "" && t.Date < f.From {
		return false
	}
	if f.To != "" && t.Date > f.To {
		return false
	}
	return true
}

// FilterTrips returns the trips passing f.
func FilterTrips(trips []core.Trip, f TripFilter) []core.Trip {
	out := make([]core.Trip, 0, len(trips))
	for _, t := range trips {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
