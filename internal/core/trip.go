package core

import (
	"github.com/shopspring/decimal"
)

// Trip is the consolidated view of every ledger row sharing a TripKey.
// Trips are derived on each aggregation run and never patched in place,
// except for the optimistic field edits of a live dashboard session.
type Trip struct {
	PlateNumber string `json:"plate_number"`
	Date        string `json:"date"`
	TruckType   string `json:"truck_type"`
	Company     string `json:"company"`
	Driver      string `json:"driver"`
	Route       string `json:"trip_route"`
	FrontLoad   string `json:"front_load"`
	BackLoad    string `json:"back_load"`

	ReferenceNumbers          []string `json:"reference_numbers"`
	FrontLoadReferenceNumbers []string `json:"front_load_reference_numbers"`
	BackLoadReferenceNumbers  []string `json:"back_load_reference_numbers"`

	Remarks     []string `json:"remarks"`
	RemarksText string   `json:"remarks_text"`

	Allowance              decimal.Decimal `json:"allowance"`
	FuelLiters             decimal.Decimal `json:"fuel_liters"`
	FuelAmount             decimal.Decimal `json:"fuel_amount"`
	FrontLoadAmount        decimal.Decimal `json:"front_load_amount"`
	BackLoadAmount         decimal.Decimal `json:"back_load_amount"`
	FrontAndBackLoadAmount decimal.Decimal `json:"front_and_back_load_amount"`
	Income                 decimal.Decimal `json:"income"`
	EntryCount             int             `json:"entry_count"`
}

// NewTrip creates an empty accumulator for key.
func NewTrip(key TripKey) *Trip {
	return &Trip{
		PlateNumber:               key.Plate,
		Date:                      key.Date,
		ReferenceNumbers:          []string{},
		FrontLoadReferenceNumbers: []string{},
		BackLoadReferenceNumbers:  []string{},
		Remarks:                   []string{},
		Allowance:                 decimal.Zero,
		FuelLiters:                decimal.Zero,
		FuelAmount:                decimal.Zero,
		FrontLoadAmount:           decimal.Zero,
		BackLoadAmount:            decimal.Zero,
		FrontAndBackLoadAmount:    decimal.Zero,
		Income:                    decimal.Zero,
	}
}

// Key returns the trip's identity.
func (t Trip) Key() TripKey {
	return TripKey{Plate: t.PlateNumber, Date: t.Date}
}

// HasMeaningfulData is false for trips with no money, no text and no
// references. Such trips are valid results but never presented.
func (t Trip) HasMeaningfulData() bool {
	for _, d := range []decimal.Decimal{
		t.Allowance, t.FuelLiters, t.FuelAmount, t.FrontLoadAmount,
		t.BackLoadAmount, t.FrontAndBackLoadAmount, t.Income,
	} {
		if !d.IsZero() {
			return true
		}
	}
	for _, s := range []string{t.Driver, t.Route, t.FrontLoad, t.BackLoad, t.RemarksText} {
		if s != "" {
			return true
		}
	}
	return len(t.ReferenceNumbers) > 0 ||
		len(t.FrontLoadReferenceNumbers) > 0 ||
		len(t.BackLoadReferenceNumbers) > 0 ||
		len(t.Remarks) > 0
}

// Clone returns a deep copy safe to mutate independently.
func (t Trip) Clone() Trip {
	c := t
	c.ReferenceNumbers = append([]string{}, t.ReferenceNumbers...)
	c.FrontLoadReferenceNumbers = append([]string{}, t.FrontLoadReferenceNumbers...)
	c.BackLoadReferenceNumbers = append([]string{}, t.BackLoadReferenceNumbers...)
	c.Remarks = append([]string{}, t.Remarks...)
	return c
}

// Apply sets one editable field. An empty value clears it.
func (t *Trip) Apply(field TripField, value string) error {
	switch field {
	case FieldRoute:
		t.Route = value
	case FieldDriver:
		t.Driver = value
	case FieldFrontLoad:
		t.FrontLoad = value
	case FieldBackLoad:
		t.BackLoad = value
	default:
		return ErrInvalidField
	}
	return nil
}

// Field returns the current value of an editable field.
func (t Trip) Field(field TripField) string {
	switch field {
	case FieldRoute:
		return t.Route
	case FieldDriver:
		return t.Driver
	case FieldFrontLoad:
		return t.FrontLoad
	case FieldBackLoad:
		return t.BackLoad
	}
	return ""
}

// AppendUnique adds s to set unless it is empty or already there.
func AppendUnique(set []string, s string) []string {
	if s == "" {
		return set
	}
	for _, v := range set {
		if v == s {
			return set
		}
	}
	return append(set, s)
}
