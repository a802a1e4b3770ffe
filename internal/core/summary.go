package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// weekSpan is the length of the rolling weekly window.
const weekSpan = 7 * 24 * time.Hour

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether an epoch-millisecond timestamp falls inside w.
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start.UnixMilli() && ts < w.End.UnixMilli()
}

// Summary bundles every figure derived from a ledger at a reference time.
type Summary struct {
	Reference    time.Time
	Count        int
	TotalBalance decimal.Decimal
	WeeklyTotal  decimal.Decimal
	MonthlyTotal decimal.Decimal
	Top          *CategoryAmount // nil for an empty ledger
	ByCategory   []CategoryAmount
}

// TotalBalance sums every amount in the ledger.
func TotalBalance(l Ledger) decimal.Decimal {
	total := decimal.Zero
	for _, t := range l {
		total = total.Add(t.Amount)
	}
	return total
}

// PeriodTotal sums the amounts with start <= timestamp < end.
func PeriodTotal(l Ledger, start, end time.Time) decimal.Decimal {
	return windowTotal(l, Window{Start: start, End: end})
}

func windowTotal(l Ledger, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, t := range l {
		if w.Contains(t.Timestamp) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// WeekWindow is the rolling seven days ending at ref, ref included.
func WeekWindow(ref time.Time) Window {
	return Window{
		Start: ref.Add(-weekSpan),
		End:   ref.Add(time.Millisecond),
	}
}

// MonthWindow is the calendar month containing ref, in ref's location.
func MonthWindow(ref time.Time) Window {
	y, m, _ := ref.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// WeeklyTotal sums the transactions of the last seven days.
func WeeklyTotal(l Ledger, ref time.Time) decimal.Decimal {
	return windowTotal(l, WeekWindow(ref))
}

// MonthlyTotal sums the transactions of ref's calendar month.
func MonthlyTotal(l Ledger, ref time.Time) decimal.Decimal {
	return windowTotal(l, MonthWindow(ref))
}

// ByCategory returns per-category totals in canonical category order.
// Categories without transactions are omitted.
func ByCategory(l Ledger) []CategoryAmount {
	sums := make(map[Category]decimal.Decimal, len(categories))
	for _, t := range l {
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	out := make([]CategoryAmount, 0, len(sums))
	for _, c := range categories {
		if sum, ok := sums[c]; ok {
			out = append(out, CategoryAmount{Category: c, Amount: sum})
		}
	}
	return out
}

// TopCategory returns the category with the largest total. When several
// categories share the maximum, the one first in canonical order wins
// (shopping, food, transport, home, other). ok is false for an empty ledger.
func TopCategory(l Ledger) (top CategoryAmount, ok bool) {
	for _, ca := range ByCategory(l) {
		if !ok || ca.Amount.GreaterThan(top.Amount) {
			top, ok = ca, true
		}
	}
	return top, ok
}

// Summarize computes every summary figure for the ledger at ref.
func Summarize(l Ledger, ref time.Time) Summary {
	s := Summary{
		Reference:    ref,
		Count:        len(l),
		TotalBalance: TotalBalance(l),
		WeeklyTotal:  WeeklyTotal(l, ref),
		MonthlyTotal: MonthlyTotal(l, ref),
		ByCategory:   ByCategory(l),
	}
	if top, ok := TopCategory(l); ok {
		s.Top = &top
	}
	return s
}
