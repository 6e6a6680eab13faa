/*
Package calendar provides the civil-date primitives used by the contract
scheduling engine.

PURPOSE:
  Contract timelines are day-granular. A service delivery or an invoice
  happens ON a calendar date, never at a time of day, so everything here
  works on midnight-UTC dates.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: A calendar day (2025-01-31)
  - Month arithmetic: Adding N months lands on the same day-of-month,
    clamped to the last valid day of the target month
  - Span: An inclusive [Start, End] range of days

MONTH ARITHMETIC:
  time.Time.AddDate normalises overflow, so Jan 31 + 1 month becomes
  Mar 3. Billing cadences cannot tolerate that, so AddMonths clamps:

    Jan 31 + 1 month  = Feb 28 (Feb 29 in leap years)
    Mar 31 + 1 month  = Apr 30
    Feb 29 + 1 year   = Feb 28

  Recurrences must anchor on the series start (start.AddMonths(k*step))
  instead of chaining adds, otherwise one clamp (Jan 31 -> Feb 28) would
  pull every later occurrence back to the 28th.

SEE ALSO:
  - contract/engine.go: Uses Date for occurrence generation
*/
package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the wire format for dates (ISO 8601 calendar date).
const Layout = "2006-01-02"

// =============================================================================
// DATE - Day-granular point on the calendar
// =============================================================================

// Date is a calendar day. The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate builds a date. Out-of-range days are normalised like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the time-of-day (and location) of t.
func FromTime(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "YYYY-MM-DD". Full RFC 3339 timestamps are accepted too;
// their time-of-day is discarded.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return FromTime(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return FromTime(t), nil
}

// MustParseDate is ParseDate for fixtures. Panics on bad input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current UTC date.
func Today() Date {
	return FromTime(time.Now().UTC())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.t.Before(other.t):
		return -1
	case d.t.After(other.t):
		return 1
	default:
		return 0
	}
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// AddMonths adds n calendar months, clamping the day to the target month.
func (d Date) AddMonths(n int) Date {
	if d.IsZero() {
		return d
	}
	// Normalise through the first of the month so the month index itself
	// never overflows, then clamp the day.
	first := time.Date(d.t.Year(), d.t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.t.Day()
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// AddYears adds n years with the same clamping rule (Feb 29 -> Feb 28).
func (d Date) AddYears(n int) Date { return d.AddMonths(12 * n) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// MarshalJSON encodes as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", an RFC 3339 timestamp, "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// SPAN - Inclusive range of days
// =============================================================================

// Span is the inclusive range [Start, End].
type Span struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (s Span) Contains(d Date) bool {
	return d.AfterOrEqual(s.Start) && d.BeforeOrEqual(s.End)
}

// Days returns the number of days covered, counting both ends.
// An inverted span covers zero days.
func (s Span) Days() int {
	if s.End.Before(s.Start) {
		return 0
	}
	return DaysBetween(s.Start, s.End) + 1
}

func (s Span) String() string {
	return "[" + s.Start.String() + ", " + s.End.String() + "]"
}

// =============================================================================
// UTILITIES
// =============================================================================

// DaysBetween returns to - from in whole days. Both dates sit on UTC
// midnight, so Unix seconds divide evenly; time.Duration would overflow
// past about 292 years.
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), DaysIn(d.Year(), d.Month()))
}
