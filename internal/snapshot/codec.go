// Package snapshot converts a ledger to and from its persisted form: a JSON
// array of records with the fields id, title, amount, category, dateLabel
// and timestamp.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spese/internal/core"
)

// ErrMalformed is returned when persisted data fails structural validation.
var ErrMalformed = errors.New("malformed snapshot")

// Record is the persisted shape of a transaction.
type Record struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Amount    json.Number `json:"amount"`
	Category  string      `json:"category"`
	DateLabel string      `json:"dateLabel"`
	Timestamp *int64      `json:"timestamp,omitempty"`
}

// FromTransaction builds the persisted record of t.
func FromTransaction(t core.Transaction) Record {
	ts := t.Timestamp
	return Record{
		ID:        t.ID,
		Title:     t.Title,
		Amount:    json.Number(t.Amount.String()),
		Category:  string(t.Category),
		DateLabel: t.DateLabel,
		Timestamp: &ts,
	}
}

// Transaction validates the record and converts it back.
func (r Record) Transaction() (core.Transaction, error) {
	if r.ID == "" {
		return core.Transaction{}, errors.New("missing id")
	}
	c := core.Category(r.Category)
	if !c.IsValid() {
		return core.Transaction{}, fmt.Errorf("record %s: unknown category %q", r.ID, r.Category)
	}
	if r.Amount == "" {
		return core.Transaction{}, fmt.Errorf("record %s: missing amount", r.ID)
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: amount %q: %w", r.ID, r.Amount, err)
	}
	var ts int64
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}
	return core.Transaction{
		ID:        r.ID,
		Title:     r.Title,
		Amount:    amount,
		Category:  c,
		DateLabel: r.DateLabel,
		Timestamp: ts,
	}, nil
}

// Records converts the whole ledger, preserving order.
func Records(l core.Ledger) []Record {
	out := make([]Record, len(l))
	for i, t := range l {
		out[i] = FromTransaction(t)
	}
	return out
}

// Encode serializes the ledger, newest first.
func Encode(l core.Ledger) ([]byte, error) {
	data, err := json.Marshal(Records(l))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a snapshot. The literal null decodes to an
// empty ledger. Any structural problem is reported as ErrMalformed.
func Decode(data []byte) (core.Ledger, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}

	l := make(core.Ledger, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		t, err := r.Transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrMalformed, t.ID)
		}
		seen[t.ID] = struct{}{}
		l = append(l, t)
	}
	return l, nil
}
