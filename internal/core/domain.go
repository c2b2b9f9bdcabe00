package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const isoDate = "2006-01-02"

type (
	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	// NameRef is a field the backend sends either as a plain string or as an
	// {id, name} object, depending on its version.
	NameRef struct {
		ID   string
		Name string
	}

	// VehicleRef identifies the truck a ledger row belongs to.
	VehicleRef struct {
		PlateNumber string `json:"plate_number"`
		TruckType   string `json:"truck_type,omitempty"`
		Company     string `json:"company,omitempty"`
	}

	// EntryID is a backend record identifier. Numeric IDs stay numeric on
	// the wire.
	EntryID string

	// LedgerEntry is one accounting transaction row as returned by the backend.
	LedgerEntry struct {
		ID              EntryID         `json:"id"`
		AccountNumber   string          `json:"account_number"`
		AccountType     NameRef         `json:"account_type"`
		Truck           VehicleRef      `json:"truck"`
		PlateNumber     string          `json:"plate_number,omitempty"`
		TruckType       string          `json:"truck_type,omitempty"`
		Company         string          `json:"company,omitempty"`
		Date            Date            `json:"date"`
		Debit           decimal.Decimal `json:"debit"`
		Credit          decimal.Decimal `json:"credit"`
		FinalTotal      decimal.Decimal `json:"final_total"`
		Remarks         string          `json:"remarks"`
		Description     string          `json:"description,omitempty"`
		ReferenceNumber string          `json:"reference_number,omitempty"`
		Driver          NameRef         `json:"driver"`
		Route           NameRef         `json:"route"`
		FrontLoad       NameRef         `json:"front_load"`
		BackLoad        NameRef         `json:"back_load"`
		Quantity        decimal.Decimal `json:"quantity"`
		Price           decimal.Decimal `json:"price"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Layouts accepted for dates coming from the backend or from users, tried in order.
var dateLayouts = []string{
	isoDate,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a date literal and rebuilds it as a calendar day. Values
// carrying a time of day keep the day they name in their own offset.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return NewDate(y, int(m), d), nil
	}
	return Date{}, ErrInvalidDate
}

// NormalizeDate returns s in YYYY-MM-DD form.
func NormalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the canonical YYYY-MM-DD form, or "" for an empty date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(isoDate)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on a malformed literal; the row keeps an empty date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// String returns the trimmed display name.
func (r NameRef) String() string {
	return strings.TrimSpace(r.Name)
}

// IsEmpty reports whether the reference carries no display name.
func (r NameRef) IsEmpty() bool {
	return r.String() == ""
}

func (r NameRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return json.Marshal(r.Name)
	}
	return json.Marshal(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{r.ID, r.Name})
}

func (r *NameRef) UnmarshalJSON(data []byte) error {
	*r = NameRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.Name)
	case '{':
		var obj struct {
			ID   json.RawMessage `json:"id"`
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.ID = rawScalar(obj.ID)
		r.Name = rawScalar(obj.Name)
		return nil
	default:
		r.Name = rawScalar(data)
		return nil
	}
}

func (v *VehicleRef) UnmarshalJSON(data []byte) error {
	*v = VehicleRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		v.PlateNumber = rawScalar(data)
		return nil
	}
	var obj struct {
		PlateNumber json.RawMessage `json:"plate_number"`
		TruckType   json.RawMessage `json:"truck_type"`
		Company     NameRef         `json:"company"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	v.PlateNumber = rawScalar(obj.PlateNumber)
	v.TruckType = rawScalar(obj.TruckType)
	v.Company = obj.Company.String()
	return nil
}

func (id EntryID) String() string {
	return string(id)
}

func (id EntryID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *EntryID) UnmarshalJSON(data []byte) error {
	*id = EntryID(rawScalar(data))
	return nil
}

// UnmarshalJSON coerces malformed fields instead of rejecting the row:
// numbers that do not parse become zero, scalars of the wrong JSON type are
// read as text.
func (e *LedgerEntry) UnmarshalJSON(data []byte) error {
	type alias LedgerEntry
	var raw struct {
		alias
		AccountNumber   flexString  `json:"account_number"`
		PlateNumber     flexString  `json:"plate_number"`
		TruckType       flexString  `json:"truck_type"`
		Company         NameRef     `json:"company"`
		Remarks         flexString  `json:"remarks"`
		Description     flexString  `json:"description"`
		ReferenceNumber flexString  `json:"reference_number"`
		Debit           flexDecimal `json:"debit"`
		Credit          flexDecimal `json:"credit"`
		FinalTotal      flexDecimal `json:"final_total"`
		Quantity        flexDecimal `json:"quantity"`
		Price           flexDecimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = LedgerEntry(raw.alias)
	e.AccountNumber = string(raw.AccountNumber)
	e.PlateNumber = string(raw.PlateNumber)
	e.TruckType = string(raw.TruckType)
	e.Company = raw.Company.String()
	e.Remarks = string(raw.Remarks)
	e.Description = string(raw.Description)
	e.ReferenceNumber = string(raw.ReferenceNumber)
	e.Debit = raw.Debit.Decimal
	e.Credit = raw.Credit.Decimal
	e.FinalTotal = raw.FinalTotal.Decimal
	e.Quantity = raw.Quantity.Decimal
	e.Price = raw.Price.Decimal
	return nil
}

// RawPlate returns the plate as sent, preferring the embedded vehicle object
// over the legacy bare field.
func (e LedgerEntry) RawPlate() string {
	if p := strings.TrimSpace(e.Truck.PlateNumber); p != "" && !strings.EqualFold(p, "nan") {
		return p
	}
	return e.PlateNumber
}

// Vehicle resolves the embedded and legacy vehicle fields into one reference.
func (e LedgerEntry) Vehicle() VehicleRef {
	v := VehicleRef{
		PlateNumber: NormalizePlate(e.RawPlate()),
		TruckType:   strings.TrimSpace(e.Truck.TruckType),
		Company:     strings.TrimSpace(e.Truck.Company),
	}
	if v.TruckType == "" {
		v.TruckType = strings.TrimSpace(e.TruckType)
	}
	if v.Company == "" {
		v.Company = strings.TrimSpace(e.Company)
	}
	return v
}

// Key returns the (vehicle, day) identity the row consolidates under.
func (e LedgerEntry) Key() TripKey {
	return NewTripKey(e.RawPlate(), e.Date)
}

// Category classifies the row's account type.
func (e LedgerEntry) Category() Category {
	return ClassifyRef(e.AccountType)
}

// IsExcluded reports opening-balance rows, which never enter any aggregate.
func (e LedgerEntry) IsExcluded() bool {
	return containsFold(e.Description, "beginning balance")
}

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = flexString(rawScalar(data))
	return nil
}

type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	f.Decimal = decimal.Zero
	s := rawScalar(data)
	if s == "" {
		return nil
	}
	if d, err := ParseAmount(s); err == nil {
		f.Decimal = d
	}
	return nil
}

// rawScalar renders a JSON scalar as text; null and non-scalars become "".
func rawScalar(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	default:
		return string(data)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
