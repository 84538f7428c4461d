package calendar_test

import (
	"testing"
	"time"

	"github.com/tokocicil/collection-engine/calendar"
)

func TestIsBusinessDay_SundayNeverCounts(t *testing.T) {
	// GIVEN: A run of Sundays across the year
	// WHEN: Checking each against an empty holiday set AND a set containing it
	// THEN: Neither is a business day

	sunday := calendar.NewDate(2025, time.January, 5) // 5 Jan 2025 is a Sunday
	for i := 0; i < 10; i++ {
		d := sunday.AddDays(7 * i)
		if d.Weekday() != time.Sunday {
			t.Fatalf("test setup broken: %s is not a Sunday", d)
		}
		if calendar.IsBusinessDay(d, nil) {
			t.Errorf("%s: Sunday counted as business day", d)
		}
		if calendar.IsBusinessDay(d, calendar.NewHolidaySet([]string{d.ISO()})) {
			t.Errorf("%s: Sunday counted as business day with holiday set", d)
		}
	}
}

func TestIsBusinessDay_SaturdayCounts(t *testing.T) {
	// Collectors work Saturdays: only Sunday and holidays are excluded.
	saturday := calendar.NewDate(2025, time.January, 4)
	if !calendar.IsBusinessDay(saturday, nil) {
		t.Errorf("Saturday should be a business day")
	}
}

func TestIsBusinessDay_HolidayExcluded(t *testing.T) {
	hs := calendar.NewHolidaySet([]string{"2025-01-01"})
	if calendar.IsBusinessDay(calendar.NewDate(2025, time.January, 1), hs) {
		t.Errorf("declared holiday counted as business day")
	}
	if !calendar.IsBusinessDay(calendar.NewDate(2025, time.January, 2), hs) {
		t.Errorf("ordinary Thursday should be a business day")
	}
}

func TestCountBusinessDays_InclusiveEndpoints(t *testing.T) {
	// GIVEN: Mon 6 Jan 2025 through Sun 12 Jan 2025
	// WHEN: Counting with no holidays
	// THEN: 6 days (Mon-Sat), the trailing Sunday excluded

	start := calendar.NewDate(2025, time.January, 6)
	end := calendar.NewDate(2025, time.January, 12)
	if got := calendar.CountBusinessDays(start, end, nil); got != 6 {
		t.Errorf("CountBusinessDays = %d, want 6", got)
	}

	// Single-day range on a business day counts itself.
	if got := calendar.CountBusinessDays(start, start, nil); got != 1 {
		t.Errorf("single business day = %d, want 1", got)
	}

	// Inverted range counts nothing.
	if got := calendar.CountBusinessDays(end, start, nil); got != 0 {
		t.Errorf("inverted range = %d, want 0", got)
	}
}

func TestCountBusinessDays_SkipsHolidays(t *testing.T) {
	start := calendar.NewDate(2025, time.January, 6)
	end := calendar.NewDate(2025, time.January, 11)
	hs := calendar.NewHolidaySet([]string{"2025-01-07", "2025-01-09"})
	if got := calendar.CountBusinessDays(start, end, hs); got != 4 {
		t.Errorf("CountBusinessDays with holidays = %d, want 4", got)
	}
}

func TestAddBusinessDays_SkipsSundays(t *testing.T) {
	// GIVEN: Saturday 4 Jan 2025
	// WHEN: Projecting 1 and 2 business days ahead
	// THEN: Sunday is skipped - day 1 lands on Monday the 6th

	sat := calendar.NewDate(2025, time.January, 4)

	got := calendar.AddBusinessDays(sat, 1, nil)
	if want := calendar.NewDate(2025, time.January, 6); got != want {
		t.Errorf("AddBusinessDays(sat, 1) = %s, want %s", got, want)
	}

	got = calendar.AddBusinessDays(sat, 2, nil)
	if want := calendar.NewDate(2025, time.January, 7); got != want {
		t.Errorf("AddBusinessDays(sat, 2) = %s, want %s", got, want)
	}
}

func TestAddBusinessDays_SkipsHolidays(t *testing.T) {
	start := calendar.NewDate(2025, time.January, 6)
	hs := calendar.NewHolidaySet([]string{"2025-01-07"})
	got := calendar.AddBusinessDays(start, 1, hs)
	if want := calendar.NewDate(2025, time.January, 8); got != want {
		t.Errorf("AddBusinessDays over holiday = %s, want %s", got, want)
	}
}

func TestAddBusinessDays_ZeroIsStart(t *testing.T) {
	start := calendar.NewDate(2025, time.March, 3)
	if got := calendar.AddBusinessDays(start, 0, nil); got != start {
		t.Errorf("AddBusinessDays(start, 0) = %s, want start", got)
	}
}

func TestAddBusinessDays_CalendarSpanBounds(t *testing.T) {
	// With only Sundays excluded, n business days span at least n and at
	// most ceil(7n/6) calendar days.
	start := calendar.NewDate(2025, time.January, 1)
	for _, n := range []int{1, 6, 30, 60, 180} {
		end := calendar.AddBusinessDays(start, n, nil)
		span := int(end.Time().Sub(start.Time()).Hours() / 24)
		if span < n {
			t.Errorf("n=%d: span %d < n", n, span)
		}
		if max := (7*n + 5) / 6; span > max+1 {
			t.Errorf("n=%d: span %d exceeds bound %d", n, span, max+1)
		}
	}
}

func TestAddBusinessDays_TenorProjection(t *testing.T) {
	// A 60-day tenor starting Wed 1 Jan 2025 with no holidays: 60 business
	// days spread over 10 full Mon-Sat weeks. Day 60 falls on Wed 12 Mar.
	start := calendar.NewDate(2025, time.January, 1)
	got := calendar.AddBusinessDays(start, 60, nil)
	if want := calendar.NewDate(2025, time.March, 12); got != want {
		t.Errorf("60-day maturity = %s, want %s", got, want)
	}
}
