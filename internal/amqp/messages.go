package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spese/internal/ledger"
	"spese/internal/snapshot"
)

// LedgerEvent is the wire form of a committed ledger mutation. The
// transaction uses the same field names as the persisted snapshot.
type LedgerEvent struct {
	Type        string          `json:"type"`
	Transaction snapshot.Record `json:"transaction"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewLedgerEvent converts a ledger event to its wire form.
func NewLedgerEvent(e ledger.Event) *LedgerEvent {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return &LedgerEvent{
		Type:        string(e.Type),
		Transaction: snapshot.FromTransaction(e.Transaction),
		OccurredAt:  occurred.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch ledger.EventType(msg.Type) {
	case ledger.EventAdded, ledger.EventRemoved:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.Transaction.ID == "" {
		return nil, errors.New("event without transaction id")
	}
	return &msg, nil
}
