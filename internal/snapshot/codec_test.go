package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"spese/internal/core"
)

func sample() core.Ledger {
	return core.Ledger{
		{ID: "b", Title: "Taxi", Amount: decimal.RequireFromString("7.35"), Category: core.Transport, DateLabel: "3 ene, 09:10", Timestamp: 1735895400000},
		{ID: "a", Title: "Lunch", Amount: decimal.RequireFromString("12.50"), Category: core.Food, DateLabel: "2 ene, 16:00", Timestamp: 1735833600000},
	}
}

func TestRoundTrip(t *testing.T) {
	l := sample()
	data, err := Encode(l)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(l) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, l)
	}
}

func TestEncodeUsesSnapshotFieldNames(t *testing.T) {
	data, err := Encode(sample()[1:])
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `[{"id":"a","title":"Lunch","amount":12.5,"category":"food","dateLabel":"2 ene, 16:00","timestamp":1735833600000}]`
	if string(data) != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", data, want)
	}
}

func TestEncodeEmptyLedger(t *testing.T) {
	data, err := Encode(nil)
	if err != nil || string(data) != "[]" {
		t.Fatalf("expected [], got %s (err=%v)", data, err)
	}
}

func TestDecodeAcceptsBrowserSnapshot(t *testing.T) {
	// timestamp missing on entries saved before it was introduced
	raw := `[
		{"id":"17042342abc","title":"Cine","amount":25,"category":"other","dateLabel":"02 ene., 4:00 p. m.","timestamp":1704234200000},
		{"id":"old1","title":"Pan","amount":1.2,"category":"food","dateLabel":"01 ene., 9:00 a. m."}
	]`
	l, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(l) != 2 || l[1].Timestamp != 0 || l[0].DateLabel != "02 ene., 4:00 p. m." {
		t.Fatalf("unexpected ledger %+v", l)
	}
	if !l[1].Amount.Equal(decimal.RequireFromString("1.2")) {
		t.Fatalf("unexpected amount %s", l[1].Amount)
	}
}

func TestDecodeNullIsEmpty(t *testing.T) {
	l, err := Decode([]byte("null"))
	if err != nil || len(l) != 0 {
		t.Fatalf("expected empty ledger, got %+v (err=%v)", l, err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"object":            `{"id":"a"}`,
		"trailing data":     `[] []`,
		"missing id":        `[{"title":"x","amount":1,"category":"food"}]`,
		"unknown category":  `[{"id":"a","title":"x","amount":1,"category":"travel"}]`,
		"missing amount":    `[{"id":"a","title":"x","category":"food"}]`,
		"text amount":       `[{"id":"a","title":"x","amount":"lots","category":"food"}]`,
		"duplicate ids":     `[{"id":"a","amount":1,"category":"food"},{"id":"a","amount":2,"category":"home"}]`,
		"string timestamp":  `[{"id":"a","amount":1,"category":"food","timestamp":"yesterday"}]`,
		"array of integers": `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			l, err := Decode([]byte(raw))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v (ledger=%+v)", err, l)
			}
		})
	}
}

func TestExportYAML(t *testing.T) {
	data, err := Export(sample(), FormatYAML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := string(data)
	for _, want := range []string{"id: b", "amount: 7.35", "category: transport", "title: Taxi", "timestamp: 1735833600000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml export missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "!!") {
		t.Fatalf("yaml export should not carry explicit tags:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected error for csv")
	}
	if FormatYAML.ContentType() != "application/yaml" || FormatJSON.ContentType() != "application/json" {
		t.Fatalf("unexpected content types")
	}
}
