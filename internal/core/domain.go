package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxTitleLength bounds the title of a transaction, in characters.
const MaxTitleLength = 200

type (
	// Transaction is one recorded expense. It is immutable once created.
	Transaction struct {
		ID        string
		Title     string
		Amount    decimal.Decimal
		Category  Category
		DateLabel string // display text computed at creation, never parsed back
		Timestamp int64  // epoch milliseconds, 0 when unknown
	}

	// Draft holds the user supplied fields of a transaction before the
	// ledger assigns an id, a timestamp and a date label.
	Draft struct {
		Title    string
		Amount   decimal.Decimal
		Category Category
	}
)

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	ErrTitleEncoding   = errors.New("title is not valid UTF-8")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
)

// ValidationError reports which field of a draft was rejected.
type ValidationError struct {
	Field      string
	Err        error
	Suggestion string // closest valid value, if any
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %v (did you mean %q?)", e.Field, e.Err, e.Suggestion)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the draft against the rules enforced when adding to the
// ledger. Titles are compared after trimming surrounding whitespace.
func (d Draft) Validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if !utf8.ValidString(title) {
		return &ValidationError{Field: "title", Err: ErrTitleEncoding}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Err: ErrTitleTooLong}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !d.Category.IsValid() {
		return &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
	return nil
}

// Equal reports whether both transactions carry the same values.
// Amounts are compared numerically, so 12.5 equals 12.50.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Amount.Equal(o.Amount) &&
		t.Category == o.Category &&
		t.DateLabel == o.DateLabel &&
		t.Timestamp == o.Timestamp
}
