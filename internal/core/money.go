// Package core provides the ledger domain types and the classification and
// load-attribution rules every view is built from.
//
// This file contains amount parsing for values the backend sends as text.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a currency literal to a decimal.
//
// It accepts thousands separators, a leading peso sign or "PHP" prefix and
// accounting-style parentheses for negatives. Unlike user input, ledger
// amounts may be negative or zero.
//
// Examples:
//
//	ParseAmount("1,250.50")  -> 1250.5
//	ParseAmount("₱ 300")     -> 300
//	ParseAmount("(500.00)")  -> -500
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, ErrInvalidAmount
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimPrefix(s, "₱")
	if len(s) >= 3 && strings.EqualFold(s[:3], "php") {
		s = s[3:]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Pesos returns the amount as a float64 for display purposes only.
// Aggregation always stays in decimal.
func Pesos(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
