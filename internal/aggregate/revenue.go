package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"tripledger/internal/core"
)

// Load directions used in revenue streams.
const (
	DirectionFront = "front"
	DirectionBack  = "back"
)

const unnamedLoad = "Unspecified"

// StreamAmount is the revenue attributed to one load name in one direction.
type StreamAmount struct {
	Name      string          `json:"name"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Entries   int             `json:"entries"`
}

// CategoryTotal is an amount aggregated by account category.
type CategoryTotal struct {
	Category core.Category   `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Entries  int             `json:"entries"`
}

// RevenueSummary is the global revenue and expense picture, not split per trip.
type RevenueSummary struct {
	// HaulingIncome is the generic income total; it leaves out rice-hull rows.
	HaulingIncome decimal.Decimal `json:"hauling_income"`
	RiceHullTon   decimal.Decimal `json:"rice_hull_ton"`
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`

	// FrontLoad includes rice-hull rows, which always count as front load.
	FrontLoad           decimal.Decimal `json:"front_load"`
	BackLoad            decimal.Decimal `json:"back_load"`
	FrontAndBackLoad    decimal.Decimal `json:"front_and_back_load"`
	Unattributed        decimal.Decimal `json:"unattributed_amount"`
	UnattributedEntries int             `json:"unattributed_count"`

	Fuel          decimal.Decimal `json:"fuel"`
	Allowance     decimal.Decimal `json:"allowance"`
	CostOfService decimal.Decimal `json:"cost_of_service"`
	OPEX          []CategoryTotal `json:"opex"`
	OPEXTotal     decimal.Decimal `json:"opex_total"`
	NetIncome     decimal.Decimal `json:"net_income"`

	Streams         []StreamAmount        `json:"streams"`
	EntryCounts     map[core.Category]int `json:"entry_counts"`
	TotalEntries    int                   `json:"total_entries"`
	ExcludedEntries int                   `json:"excluded_entries"`
}

type streamKey struct {
	name      string
	direction string
}

// SummarizeRevenue totals every non-excluded entry by category, using the
// same load attribution as the trip view.
func SummarizeRevenue(entries []core.LedgerEntry) RevenueSummary {
	s := RevenueSummary{
		HaulingIncome:    decimal.Zero,
		RiceHullTon:      decimal.Zero,
		GrossRevenue:     decimal.Zero,
		FrontLoad:        decimal.Zero,
		BackLoad:         decimal.Zero,
		FrontAndBackLoad: decimal.Zero,
		Unattributed:     decimal.Zero,
		Fuel:             decimal.Zero,
		Allowance:        decimal.Zero,
		CostOfService:    decimal.Zero,
		OPEXTotal:        decimal.Zero,
		NetIncome:        decimal.Zero,
		EntryCounts:      make(map[core.Category]int),
	}
	opex := make(map[core.Category]*CategoryTotal)
	for _, c := range core.OPEXCategories() {
		opex[c] = &CategoryTotal{Category: c, Amount: decimal.Zero}
	}
	streams := make(map[streamKey]*StreamAmount)
	var streamOrder []streamKey
	addStream := func(name, direction string, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		if name == "" {
			name = unnamedLoad
		}
		k := streamKey{name, direction}
		st, ok := streams[k]
		if !ok {
			st = &StreamAmount{Name: name, Direction: direction, Amount: decimal.Zero}
			streams[k] = st
			streamOrder = append(streamOrder, k)
		}
		st.Amount = st.Amount.Add(amount)
		st.Entries++
	}

	for _, e := range entries {
		if e.IsExcluded() {
			s.ExcludedEntries++
			continue
		}
		s.TotalEntries++
		cat := e.Category()
		s.EntryCounts[cat]++

		switch {
		case cat == core.HaulingIncome:
			a := core.ResolveLoad(e)
			s.HaulingIncome = s.HaulingIncome.Add(a.Income)
			s.FrontLoad = s.FrontLoad.Add(a.Front)
			s.BackLoad = s.BackLoad.Add(a.Back)
			if a.Rule == core.RuleRiceHullTon {
				s.RiceHullTon = s.RiceHullTon.Add(a.Front)
			}
			if a.Rule == core.RuleUnattributed {
				s.Unattributed = s.Unattributed.Add(a.Unattributed)
				s.UnattributedEntries++
			}
			addStream(a.FrontLoad, DirectionFront, a.Front)
			addStream(a.BackLoad, DirectionBack, a.Back)
		case cat == core.FuelAndOil:
			s.Fuel = s.Fuel.Add(e.FinalTotal)
		case cat == core.DriversAllowance:
			s.Allowance = s.Allowance.Add(e.FinalTotal)
		case cat.IsOPEX():
			ct := opex[cat]
			ct.Amount = ct.Amount.Add(e.FinalTotal)
			ct.Entries++
			s.OPEXTotal = s.OPEXTotal.Add(e.FinalTotal)
		}
	}

	s.GrossRevenue = s.HaulingIncome.Add(s.RiceHullTon)
	s.FrontAndBackLoad = s.FrontLoad.Add(s.BackLoad)
	s.CostOfService = s.Fuel.Add(s.Allowance)
	s.NetIncome = s.GrossRevenue.Sub(s.CostOfService).Sub(s.OPEXTotal)

	for _, c := range core.OPEXCategories() {
		s.OPEX = append(s.OPEX, *opex[c])
	}

	sort.SliceStable(streamOrder, func(i, j int) bool {
		if streamOrder[i].direction != streamOrder[j].direction {
			return streamOrder[i].direction == DirectionFront
		}
		return streamOrder[i].name < streamOrder[j].name
	})
	s.Streams = make([]StreamAmount, 0, len(streamOrder))
	for _, k := range streamOrder {
		s.Streams = append(s.Streams, *streams[k])
	}
	return s
}
