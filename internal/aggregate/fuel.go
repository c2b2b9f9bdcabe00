package aggregate

import (
	"sort"

	"tripledger/internal/core"
)

// FuelInconsistency lists fuel rows of one trip that disagree with each other.
type FuelInconsistency struct {
	TripKey core.TripKey       `json:"trip_key"`
	Records []core.LedgerEntry `json:"records"`
}

// DetectFuelInconsistencies flags trips with several fuel rows where any row
// differs from the first on final total or quantity. It never changes totals.
func DetectFuelInconsistencies(entries []core.LedgerEntry) []FuelInconsistency {
	groups := make(map[core.TripKey][]core.LedgerEntry)
	var keys []core.TripKey
	for _, e := range entries {
		if e.IsExcluded() || e.Category() != core.FuelAndOil {
			continue
		}
		k := e.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := []FuelInconsistency{}
	for _, k := range keys {
		records := groups[k]
		if len(records) < 2 || consistent(records) {
			continue
		}
		out = append(out, FuelInconsistency{TripKey: k, Records: records})
	}
	return out
}

func consistent(records []core.LedgerEntry) bool {
	first := records[0]
	for _, r := range records[1:] {
		if !r.FinalTotal.Equal(first.FinalTotal) || !r.Quantity.Equal(first.Quantity) {
			return false
		}
	}
	return true
}
