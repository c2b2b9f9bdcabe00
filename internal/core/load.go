package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RiceHullTon is the front-load name forced on rice-hull hauling rows.
const RiceHullTon = "Rice Hull Ton"

// LoadRule names the branch a hauling row took through attribution.
type LoadRule string

const (
	RuleRiceHullTon  LoadRule = "rice_hull_ton"
	RuleStrike       LoadRule = "strike"
	RuleSplit        LoadRule = "split"
	RuleFrontOnly    LoadRule = "front_only"
	RuleBackOnly     LoadRule = "back_only"
	RuleUnattributed LoadRule = "unattributed"
)

// LoadAttribution is how one Hauling-Income row's final total is spread.
// Income is the contribution to the generic income total; Front and Back go
// to the load buckets. Unattributed mirrors Income for rows with no load.
type LoadAttribution struct {
	Rule         LoadRule
	FrontLoad    string
	BackLoad     string
	Front        decimal.Decimal
	Back         decimal.Decimal
	Income       decimal.Decimal
	Unattributed decimal.Decimal
}

var two = decimal.NewFromInt(2)

// FrontLoadPresent reports whether a front-load name names real cargo.
func FrontLoadPresent(name string) bool {
	n := strings.TrimSpace(name)
	return loadPresent(n) && !strings.EqualFold(n, "n")
}

// BackLoadPresent reports whether a back-load name names real cargo.
func BackLoadPresent(name string) bool {
	return loadPresent(strings.TrimSpace(name))
}

func loadPresent(n string) bool {
	return n != "" && !strings.EqualFold(n, "nan") && !strings.EqualFold(n, "none")
}

// IsStrike reports the "no cargo this way" sentinel. The match is exact,
// ignoring case and surrounding space.
func IsStrike(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "strike")
}

// IsRiceHullTon reports rows whose remarks mark a rice-hull haul.
func IsRiceHullTon(remarks string) bool {
	return containsFold(remarks, "rice hull ton")
}

// ResolveLoad attributes a Hauling-Income row. Callers must only pass rows
// classified as HaulingIncome. A Strike on either side sends the whole
// amount to the back-load bucket.
func ResolveLoad(e LedgerEntry) LoadAttribution {
	amount := e.FinalTotal
	front, back := e.FrontLoad.String(), e.BackLoad.String()
	frontOK, backOK := FrontLoadPresent(front), BackLoadPresent(back)

	a := LoadAttribution{
		Front:        decimal.Zero,
		Back:         decimal.Zero,
		Income:       decimal.Zero,
		Unattributed: decimal.Zero,
	}
	if frontOK {
		a.FrontLoad = front
	}
	if backOK {
		a.BackLoad = back
	}

	if IsRiceHullTon(e.Remarks) {
		a.Rule = RuleRiceHullTon
		a.FrontLoad = RiceHullTon
		a.Front = amount
		return a
	}

	a.Income = amount
	switch {
	case frontOK && IsStrike(front), backOK && IsStrike(back):
		a.Rule = RuleStrike
		a.Back = amount
	case frontOK && backOK:
		a.Rule = RuleSplit
		a.Front = amount.Div(two)
		a.Back = amount.Sub(a.Front)
	case frontOK:
		a.Rule = RuleFrontOnly
		a.Front = amount
	case backOK:
		a.Rule = RuleBackOnly
		a.Back = amount
	default:
		a.Rule = RuleUnattributed
		a.Unattributed = amount
	}
	return a
}
