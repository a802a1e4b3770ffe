package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDraftValidate(t *testing.T) {
	good := Draft{Title: "Lunch", Amount: decimal.RequireFromString("12.50"), Category: Food}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	accented := Draft{Title: strings.Repeat("é", MaxTitleLength), Amount: decimal.NewFromInt(1), Category: Food}
	if err := accented.Validate(); err != nil {
		t.Fatalf("multi-byte titles are counted in characters, got %v", err)
	}

	cases := []struct {
		name  string
		draft Draft
		want  error
		field string
	}{
		{"empty title", Draft{Title: "", Amount: decimal.NewFromInt(1), Category: Food}, ErrEmptyTitle, "title"},
		{"blank title", Draft{Title: "   ", Amount: decimal.NewFromInt(1), Category: Food}, ErrEmptyTitle, "title"},
		{"long title", Draft{Title: strings.Repeat("a", MaxTitleLength+1), Amount: decimal.NewFromInt(1), Category: Food}, ErrTitleTooLong, "title"},
		{"invalid utf-8 title", Draft{Title: "caf\xe9", Amount: decimal.NewFromInt(1), Category: Food}, ErrTitleEncoding, "title"},
		{"zero amount", Draft{Title: "a", Amount: decimal.Zero, Category: Food}, ErrInvalidAmount, "amount"},
		{"negative amount", Draft{Title: "a", Amount: decimal.NewFromInt(-3), Category: Food}, ErrInvalidAmount, "amount"},
		{"unknown category", Draft{Title: "a", Amount: decimal.NewFromInt(1), Category: "travel"}, ErrUnknownCategory, "category"},
		{"empty category", Draft{Title: "a", Amount: decimal.NewFromInt(1)}, ErrUnknownCategory, "category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected validation error on %q, got %v", tc.field, err)
			}
		})
	}
}

func TestTransactionEqualComparesAmountsNumerically(t *testing.T) {
	a := Transaction{ID: "1", Title: "x", Amount: decimal.RequireFromString("12.5"), Category: Food, Timestamp: 10}
	b := a
	b.Amount = decimal.RequireFromString("12.50")
	if !a.Equal(b) {
		t.Fatalf("expected 12.5 and 12.50 to be equal")
	}
	b.DateLabel = "other"
	if a.Equal(b) {
		t.Fatalf("expected different date labels to differ")
	}
}
