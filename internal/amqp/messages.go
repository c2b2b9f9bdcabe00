package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"tripledger/internal/core"
)

// Reasons a ledger-changed event is published.
const (
	ReasonFieldEdit         = "field_edit"
	ReasonAllowanceTransfer = "allowance_transfer"
	ReasonManualRefresh     = "manual_refresh"
)

// LedgerChangedMessage tells consumers the ledger was mutated and their views
// are stale. It carries no entry data; consumers refetch.
type LedgerChangedMessage struct {
	EventID   string         `json:"event_id"`
	Reason    string         `json:"reason"`
	TripKeys  []core.TripKey `json:"trip_keys"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh event ID.
func NewLedgerChangedMessage(reason string, keys ...core.TripKey) *LedgerChangedMessage {
	if keys == nil {
		keys = []core.TripKey{}
	}
	return &LedgerChangedMessage{
		EventID:   uuid.NewString(),
		Reason:    reason,
		TripKeys:  keys,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON parses a message, rejecting ones without an
// event ID or reason.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" || msg.Reason == "" {
		return nil, errors.New("ledger changed message missing event_id or reason")
	}
	return &msg, nil
}
