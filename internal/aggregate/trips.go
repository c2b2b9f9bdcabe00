// Package aggregate folds ledger entries into the dashboard views: trips per
// (vehicle, day), the revenue stream summary, driver earnings and fuel
// consistency flags. Every function here is pure and deterministic; calling
// it twice on the same entries yields identical results.
package aggregate

import (
	"sort"
	"strings"

	"tripledger/internal/core"
)

// TripResult is the output of BuildTrips.
type TripResult struct {
	Trips    []core.Trip
	Excluded []core.LedgerEntry
}

type tripAccumulator struct {
	trip    *core.Trip
	remarks *RemarksCollector
}

// BuildTrips folds entries into one Trip per TripKey, sorted by date then
// plate. Input order only decides which driver, route and load names are
// seen first; totals are plain sums.
func BuildTrips(entries []core.LedgerEntry) TripResult {
	accs := make(map[core.TripKey]*tripAccumulator)
	var keys []core.TripKey
	excluded := []core.LedgerEntry{}

	for _, e := range entries {
		if e.IsExcluded() {
			excluded = append(excluded, e)
			continue
		}
		key := e.Key()
		acc, ok := accs[key]
		if !ok {
			acc = &tripAccumulator{trip: core.NewTrip(key), remarks: NewRemarksCollector()}
			accs[key] = acc
			keys = append(keys, key)
		}
		foldEntry(acc, e)
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	trips := make([]core.Trip, 0, len(keys))
	for _, k := range keys {
		trips = append(trips, finalize(accs[k]))
	}
	return TripResult{Trips: trips, Excluded: excluded}
}

func foldEntry(acc *tripAccumulator, e core.LedgerEntry) {
	t := acc.trip
	t.EntryCount++

	v := e.Vehicle()
	if t.TruckType == "" {
		t.TruckType = v.TruckType
	}
	if t.Company == "" {
		t.Company = v.Company
	}

	ref := strings.TrimSpace(e.ReferenceNumber)
	t.ReferenceNumbers = core.AppendUnique(t.ReferenceNumbers, ref)

	cat := e.Category()
	acc.remarks.Add(cat, e.Remarks)

	if t.Driver == "" {
		t.Driver = e.Driver.String()
	}
	if t.Route == "" {
		t.Route = e.Route.String()
	}

	switch cat {
	case core.FuelAndOil:
		t.FuelLiters = t.FuelLiters.Add(e.Quantity)
		t.FuelAmount = t.FuelAmount.Add(e.FinalTotal)
	case core.DriversAllowance:
		t.Allowance = t.Allowance.Add(e.FinalTotal)
	case core.HaulingIncome:
		foldHauling(t, core.ResolveLoad(e), ref)
	}
}

func foldHauling(t *core.Trip, a core.LoadAttribution, ref string) {
	t.Income = t.Income.Add(a.Income)
	t.FrontLoadAmount = t.FrontLoadAmount.Add(a.Front)
	t.BackLoadAmount = t.BackLoadAmount.Add(a.Back)

	if a.Rule == core.RuleRiceHullTon {
		t.FrontLoad = core.RiceHullTon
	} else if t.FrontLoad == "" {
		t.FrontLoad = a.FrontLoad
	}
	if t.BackLoad == "" {
		t.BackLoad = a.BackLoad
	}

	if !a.Front.IsZero() {
		t.FrontLoadReferenceNumbers = core.AppendUnique(t.FrontLoadReferenceNumbers, ref)
	}
	if !a.Back.IsZero() {
		t.BackLoadReferenceNumbers = core.AppendUnique(t.BackLoadReferenceNumbers, ref)
	}
}

func finalize(acc *tripAccumulator) core.Trip {
	t := acc.trip
	t.FrontAndBackLoadAmount = t.FrontLoadAmount.Add(t.BackLoadAmount)
	t.Remarks = acc.remarks.List()
	t.RemarksText = acc.remarks.Joined()
	return *t
}

// Presentable drops trips without meaningful data.
func Presentable(trips []core.Trip) []core.Trip {
	out := make([]core.Trip, 0, len(trips))
	for _, t := range trips {
		if t.HasMeaningfulData() {
			out = append(out, t)
		}
	}
	return out
}
