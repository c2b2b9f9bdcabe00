package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"tripledger/internal/core"
)

// UnassignedDriver collects rows whose trip never names a driver.
const UnassignedDriver = "Unassigned"

// DriverEarnings is one driver's share of hauling revenue and trip costs.
type DriverEarnings struct {
	Driver       string          `json:"driver"`
	Trips        int             `json:"trips"`
	Entries      int             `json:"entries"`
	Income       decimal.Decimal `json:"income"`
	RiceHullTon  decimal.Decimal `json:"rice_hull_ton"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	FrontLoad    decimal.Decimal `json:"front_load"`
	BackLoad     decimal.Decimal `json:"back_load"`
	Unattributed decimal.Decimal `json:"unattributed_amount"`
	Allowance    decimal.Decimal `json:"allowance"`
	Fuel         decimal.Decimal `json:"fuel"`
}

func newDriverEarnings(name string) *DriverEarnings {
	return &DriverEarnings{
		Driver:       name,
		Income:       decimal.Zero,
		RiceHullTon:  decimal.Zero,
		GrossRevenue: decimal.Zero,
		FrontLoad:    decimal.Zero,
		BackLoad:     decimal.Zero,
		Unattributed: decimal.Zero,
		Allowance:    decimal.Zero,
		Fuel:         decimal.Zero,
	}
}

// AggregateDriverEarnings groups entries by driver. A row without its own
// driver is credited to the first driver named on its TripKey. Hauling rows
// with no load still count toward income and are shown as unattributed.
func AggregateDriverEarnings(entries []core.LedgerEntry) []DriverEarnings {
	tripDriver := make(map[core.TripKey]string)
	for _, e := range entries {
		if e.IsExcluded() {
			continue
		}
		k := e.Key()
		if _, ok := tripDriver[k]; !ok && !e.Driver.IsEmpty() {
			tripDriver[k] = e.Driver.String()
		}
	}

	byDriver := make(map[string]*DriverEarnings)
	trips := make(map[string]map[core.TripKey]struct{})
	for _, e := range entries {
		if e.IsExcluded() {
			continue
		}
		k := e.Key()
		name := e.Driver.String()
		if name == "" {
			name = tripDriver[k]
		}
		if name == "" {
			name = UnassignedDriver
		}
		d, ok := byDriver[name]
		if !ok {
			d = newDriverEarnings(name)
			byDriver[name] = d
			trips[name] = make(map[core.TripKey]struct{})
		}
		d.Entries++
		trips[name][k] = struct{}{}

		switch e.Category() {
		case core.HaulingIncome:
			a := core.ResolveLoad(e)
			d.Income = d.Income.Add(a.Income)
			d.FrontLoad = d.FrontLoad.Add(a.Front)
			d.BackLoad = d.BackLoad.Add(a.Back)
			d.Unattributed = d.Unattributed.Add(a.Unattributed)
			if a.Rule == core.RuleRiceHullTon {
				d.RiceHullTon = d.RiceHullTon.Add(a.Front)
			}
		case core.DriversAllowance:
			d.Allowance = d.Allowance.Add(e.FinalTotal)
		case core.FuelAndOil:
			d.Fuel = d.Fuel.Add(e.FinalTotal)
		}
	}

	out := make([]DriverEarnings, 0, len(byDriver))
	for name, d := range byDriver {
		d.Trips = len(trips[name])
		d.GrossRevenue = d.Income.Add(d.RiceHullTon)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Driver == UnassignedDriver) != (out[j].Driver == UnassignedDriver) {
			return out[j].Driver == UnassignedDriver
		}
		return out[i].Driver < out[j].Driver
	})
	return out
}
