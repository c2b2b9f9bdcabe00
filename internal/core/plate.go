package core

import (
	"strings"
	"unicode"
)

// NoPlate is the shared identity for rows without a usable plate number.
const NoPlate = "NO_PLATE"

// TripKey is the (vehicle, day) identity trips are consolidated under.
type TripKey struct {
	Plate string `json:"plate_number"`
	Date  string `json:"date"`
}

// NormalizePlate uppercases a plate and drops whitespace and hyphens so
// "ABC 123", "abc-123" and "ABC123" compare equal.
func NormalizePlate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return NoPlate
	}
	plate := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, trimmed)
	if plate == "" {
		return NoPlate
	}
	return plate
}

// NewTripKey builds the key for a raw plate and a day.
func NewTripKey(rawPlate string, d Date) TripKey {
	return TripKey{Plate: NormalizePlate(rawPlate), Date: d.String()}
}

// ParseTripKey builds a key from user-supplied plate and date literals.
func ParseTripKey(rawPlate, date string) (TripKey, error) {
	d, err := ParseDate(date)
	if err != nil {
		return TripKey{}, err
	}
	return NewTripKey(rawPlate, d), nil
}

func (k TripKey) String() string {
	return k.Plate + "/" + k.Date
}

// Less orders keys by date, then plate.
func (k TripKey) Less(o TripKey) bool {
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	return k.Plate < o.Plate
}
