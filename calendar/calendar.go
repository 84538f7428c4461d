/*
Package calendar provides the business-day arithmetic for the collection engine.

PURPOSE:
  Every installment schedule in this system is expressed in business days:
  a consumer on a 60-day tenor owes 60 payments, one per business day. This
  package answers the three questions everything else is built on:

  - Is this date a billable day?        (IsBusinessDay)
  - How many billable days have passed? (CountBusinessDays)
  - When does the n-th billable day fall? (AddBusinessDays)

BUSINESS DAY DEFINITION:
  Any calendar day that is not a Sunday and not a declared national holiday.
  Saturday IS a business day - collectors visit six days a week.

DATE IDENTITY:
  The engine stores event dates as Indonesian long-form strings
  ("5 Januari 2025") because that is the wire format the ledger has always
  used. Internally all comparisons go through the Date value type defined
  here; formatting and parsing live in format.go and happen only at the
  boundaries. Keeping a proper value type internally avoids the
  string-equality pitfalls of comparing formatted dates directly.

HOLIDAYS:
  Holidays arrive as a HolidaySet built from "YYYY-MM-DD" strings (the shape
  the holiday API returns). The resolver never fetches holidays itself; see
  the holiday package for the lookup collaborator. An empty set is always a
  valid input - that is the degraded mode when the lookup fails.

SEE ALSO:
  - format.go: Indonesian date formatting/parsing
  - ledger: stamps events and projects maturity dates with this package
*/
package calendar

import "time"

// =============================================================================
// DATE - Calendar date value type (day granularity, no zone)
// =============================================================================

// Date is a plain calendar date. The zero value is "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// Normalize through time.Date so Feb 30 etc. roll over consistently.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf truncates a wall-clock instant to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool         { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool         { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d == Date{} }

// Arithmetic and properties
func (d Date) AddDays(n int) Date      { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday   { return d.Time().Weekday() }
func (d Date) IsSunday() bool          { return d.Weekday() == time.Sunday }

// ISO returns the date as "YYYY-MM-DD", the key format used by HolidaySet.
func (d Date) ISO() string { return d.Time().Format("2006-01-02") }

// ParseISO parses "YYYY-MM-DD".
func ParseISO(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// MustParse is ParseISO for fixed literals; panics on malformed input.
func MustParse(s string) Date {
	d, err := ParseISO(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string { return d.ISO() }

// =============================================================================
// HOLIDAY SET - Declared holidays keyed by ISO date
// =============================================================================

// HolidaySet is a set of holiday dates keyed by "YYYY-MM-DD".
// The empty set is valid and means "no holidays" (degraded mode).
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from ISO date strings. Malformed entries are
// kept as-is; they simply never match a real date.
func NewHolidaySet(dates []string) HolidaySet {
	hs := make(HolidaySet, len(dates))
	for _, d := range dates {
		hs[d] = struct{}{}
	}
	return hs
}

func (hs HolidaySet) Contains(d Date) bool {
	if hs == nil {
		return false
	}
	_, ok := hs[d.ISO()]
	return ok
}

// =============================================================================
// BUSINESS DAY RESOLVER
// =============================================================================

// IsBusinessDay reports whether d counts toward an installment schedule.
// Sundays and declared holidays do not; every other day does.
func IsBusinessDay(d Date, holidays HolidaySet) bool {
	if d.IsSunday() {
		return false
	}
	return !holidays.Contains(d)
}

// CountBusinessDays counts business days in [start, end], inclusive of both
// endpoints. Returns 0 when end is before start.
//
// This measures days elapsed against the tenor: an order created on a
// business day owes its first installment that same day.
func CountBusinessDays(start, end Date, holidays HolidaySet) int {
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if IsBusinessDay(d, holidays) {
			count++
		}
	}
	return count
}

// AddBusinessDays returns the date on which the n-th business day strictly
// after start falls. This is the maturity-date projection: an order entering
// collection on its creation date matures on business day number tenor.
//
// n <= 0 returns start unchanged. Termination is guaranteed: each iteration
// advances exactly one calendar day and at most one day in seven is a Sunday,
// so the loop runs at most 7n iterations plus one per holiday in range.
func AddBusinessDays(start Date, n int, holidays HolidaySet) Date {
	d := start
	for counted := 0; counted < n; {
		d = d.AddDays(1)
		if IsBusinessDay(d, holidays) {
			counted++
		}
	}
	return d
}
