// Package clock supplies the reference time and the date labels used by the
// ledger. Both are interfaces so tests never depend on the wall clock, the
// system locale or the machine time zone.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/goodsign/monday"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// Formatter turns a creation instant into the display label stored with a
// transaction.
type Formatter interface {
	Format(t time.Time) string
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Zoned reports the instants of another clock in a fixed location, so
// calendar windows such as "this month" follow the configured zone.
type Zoned struct {
	Clock    Clock
	Location *time.Location
}

func (z Zoned) Now() time.Time {
	t := z.Clock.Now()
	if z.Location == nil {
		return t
	}
	return t.In(z.Location)
}

const (
	// DefaultLayout shows day, short month, hour and minute: "2 ene, 16:00".
	DefaultLayout = "2 Jan, 15:04"
	// DefaultLocale renders Spanish month names.
	DefaultLocale = string(monday.LocaleEsES)
)

// LocaleFormatter formats labels with localized month and weekday names.
type LocaleFormatter struct {
	Layout   string
	Locale   monday.Locale
	Location *time.Location
}

// NewLocaleFormatter validates the locale and time zone names.
// An empty timezone means the process local zone.
func NewLocaleFormatter(layout, locale, timezone string) (*LocaleFormatter, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	if locale == "" {
		locale = DefaultLocale
	}
	if !IsSupportedLocale(locale) {
		return nil, fmt.Errorf("unsupported date locale %q", locale)
	}
	loc := time.Local
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	return &LocaleFormatter{
		Layout:   layout,
		Locale:   monday.Locale(locale),
		Location: loc,
	}, nil
}

// Format renders t in the formatter's zone and locale.
func (f *LocaleFormatter) Format(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return monday.Format(t.In(loc), f.Layout, f.Locale)
}

// IsSupportedLocale reports whether monday knows the locale name.
func IsSupportedLocale(locale string) bool {
	for _, l := range monday.ListLocales() {
		if string(l) == locale {
			return true
		}
	}
	return false
}

// LayoutFormatter formats with the standard library only (English names).
type LayoutFormatter struct {
	Layout   string
	Location *time.Location
}

func (f LayoutFormatter) Format(t time.Time) string {
	if f.Location != nil {
		t = t.In(f.Location)
	}
	return t.Format(f.Layout)
}
