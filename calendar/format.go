package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// INDONESIAN DATE FORMAT - The ledger's wire format for event dates
// =============================================================================
// Ledger events and maturity dates are stored as "5 Januari 2025". Report
// filtering and history merging match on this exact string, so formatting
// here and parsing of stored values must stay byte-for-byte compatible.

var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var monthByName = map[string]time.Month{
	"Januari": time.January, "Februari": time.February, "Maret": time.March,
	"April": time.April, "Mei": time.May, "Juni": time.June,
	"Juli": time.July, "Agustus": time.August, "September": time.September,
	"Oktober": time.October, "November": time.November, "Desember": time.December,
}

// Indonesian formats d as "5 Januari 2025". No zero padding on the day.
func (d Date) Indonesian() string {
	return fmt.Sprintf("%d %s %d", d.Day, monthNames[d.Month-1], d.Year)
}

// ParseIndonesian parses "5 Januari 2025" back into a Date.
func ParseIndonesian(s string) (Date, error) {
	parts := strings.Fields(s)
	if len(parts) < 3 {
		return Date{}, fmt.Errorf("invalid indonesian date %q", s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day in %q", s)
	}
	month, ok := monthByName[parts[1]]
	if !ok {
		return Date{}, fmt.Errorf("unknown month in %q", s)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year in %q", s)
	}
	return NewDate(year, month, day), nil
}

// ClockTime formats the wall-clock part of an event stamp as "14:30".
func ClockTime(t time.Time) string { return t.Format("15:04") }

// Timestamp formats a full instant as "5 Januari 2025, 14:30".
func Timestamp(t time.Time) string {
	return DateOf(t).Indonesian() + ", " + ClockTime(t)
}
