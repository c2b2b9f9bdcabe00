package core

import (
	"errors"
	"fmt"
	"strings"
)

// TripField is a trip attribute the dashboard can reassign.
type TripField string

const (
	FieldRoute     TripField = "trip_route"
	FieldDriver    TripField = "driver"
	FieldFrontLoad TripField = "front_load"
	FieldBackLoad  TripField = "back_load"
)

var (
	ErrInvalidField      = errors.New("invalid trip field")
	ErrEmptyPlate        = errors.New("empty plate")
	ErrNoEntryIDs        = errors.New("no entry ids")
	ErrSameTransferPoint = errors.New("source and target trip are the same")
)

func (f TripField) Validate() error {
	switch f {
	case FieldRoute, FieldDriver, FieldFrontLoad, FieldBackLoad:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidField, string(f))
}

// FieldUpdate is the body of the backend's field-update call.
type FieldUpdate struct {
	Plate string    `json:"plate"`
	Date  string    `json:"date"`
	Field TripField `json:"field"`
	Value string    `json:"value"`
}

// NewFieldUpdate validates the field and normalizes the date for the wire.
func NewFieldUpdate(key TripKey, field TripField, value string) (FieldUpdate, error) {
	if err := field.Validate(); err != nil {
		return FieldUpdate{}, err
	}
	if strings.TrimSpace(key.Plate) == "" {
		return FieldUpdate{}, ErrEmptyPlate
	}
	date, err := NormalizeDate(key.Date)
	if err != nil {
		return FieldUpdate{}, fmt.Errorf("field update date %q: %w", key.Date, err)
	}
	return FieldUpdate{
		Plate: key.Plate,
		Date:  date,
		Field: field,
		Value: strings.TrimSpace(value),
	}, nil
}

// TransferRequest is the body of the backend's allowance-transfer call.
type TransferRequest struct {
	SourcePlate string    `json:"source_plate"`
	SourceDate  string    `json:"source_date"`
	TargetPlate string    `json:"target_plate"`
	TargetDate  string    `json:"target_date"`
	EntryIDs    []EntryID `json:"entry_ids"`
}

// NewTransferRequest normalizes both dates and checks the move is real.
func NewTransferRequest(source, target TripKey, ids []EntryID) (TransferRequest, error) {
	if len(ids) == 0 {
		return TransferRequest{}, ErrNoEntryIDs
	}
	if source == target {
		return TransferRequest{}, ErrSameTransferPoint
	}
	srcDate, err := NormalizeDate(source.Date)
	if err != nil {
		return TransferRequest{}, fmt.Errorf("source date %q: %w", source.Date, err)
	}
	dstDate, err := NormalizeDate(target.Date)
	if err != nil {
		return TransferRequest{}, fmt.Errorf("target date %q: %w", target.Date, err)
	}
	return TransferRequest{
		SourcePlate: source.Plate,
		SourceDate:  srcDate,
		TargetPlate: target.Plate,
		TargetDate:  dstDate,
		EntryIDs:    append([]EntryID(nil), ids...),
	}, nil
}

// Source returns the key entries move away from.
func (r TransferRequest) Source() TripKey {
	return TripKey{Plate: NormalizePlate(r.SourcePlate), Date: r.SourceDate}
}

// Target returns the key entries move to.
func (r TransferRequest) Target() TripKey {
	return TripKey{Plate: NormalizePlate(r.TargetPlate), Date: r.TargetDate}
}
