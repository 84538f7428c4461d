/*
ledger.go - Mutation and derived state for one order's collection ledger

PURPOSE:
  The pure core of the package: in-memory operations on an Order that has
  already been loaded. Persistence, retries, and holiday lookups live in
  service.go; nothing here touches I/O or the clock beyond the instant it
  is handed.

WEEKLY CADENCE:
  A weekly payment settles up to 6 daily installments at once. RecordPayment
  on a "mingguan" order appends min(6, tenor-paid) identical payment events,
  all carrying the same date/time/collector stamp. The ledger therefore
  always counts in daily installments regardless of cadence.

DUPLICATES:
  Nothing prevents two payments, or a payment and a visit note, on the same
  calendar date. That is observed field behavior (a consumer can pay in the
  morning after a failed visit the evening before the cut-off) and is kept
  as-is.
*/
package ledger

import (
	"sort"
	"time"

	"github.com/tokocicil/collection-engine/calendar"
)

// =============================================================================
// MUTATIONS (pure, on a loaded copy)
// =============================================================================

// RecordPayment appends payment events collected by the given collector at
// the given instant and recomputes the status. Returns how many daily
// installments were settled.
//
// Preconditions checked here: the caller is the assigned collector, and the
// ledger is not already full. Violating the first is an authorization
// failure; the second a state conflict, rejected with no mutation.
func (o *Order) RecordPayment(by Collector, now time.Time) (added int, err error) {
	if o.AssignedCollectorUID == "" || by.UID != o.AssignedCollectorUID {
		return 0, ErrNotAssigned
	}
	if len(o.Payments) >= o.Tenor {
		return 0, ErrAlreadyPaidOff
	}

	stamp := Payment{
		Date:        calendar.DateOf(now).Indonesian(),
		Time:        calendar.ClockTime(now),
		CollectedBy: by.Name,
	}

	count := 1
	if o.PaymentFrequency == FrequencyWeekly {
		count = 6
	}
	if remaining := o.Tenor - len(o.Payments); count > remaining {
		count = remaining
	}

	for i := 0; i < count; i++ {
		o.Payments = append(o.Payments, stamp)
	}

	if len(o.Payments) >= o.Tenor {
		o.Status = StatusPaidOff
	}
	return count, nil
}

// RecordVisitNote appends one no-payment visit record. Does not touch the
// payment count or status. Same-date duplicates are allowed.
func (o *Order) RecordVisitNote(by Collector, reason string, now time.Time) error {
	if o.AssignedCollectorUID == "" || by.UID != o.AssignedCollectorUID {
		return ErrNotAssigned
	}
	if reason == "" {
		return ErrEmptyReason
	}
	o.CollectionNotes = append(o.CollectionNotes, VisitNote{
		Date:        calendar.DateOf(now).Indonesian(),
		Time:        calendar.ClockTime(now),
		Reason:      reason,
		CollectedBy: by.Name,
	})
	return nil
}

// AssignCollector sets both collector fields. Both or neither: a partial
// assignment is rejected.
func (o *Order) AssignCollector(uid, name string) error {
	if uid == "" || name == "" {
		return ErrIncompleteCollector
	}
	o.AssignedCollectorUID = uid
	o.AssignedCollector = name
	return nil
}

// Transition moves the order to the next lifecycle state. The maturity side
// effect of entering Terkirim is handled by Service, which owns the holiday
// lookup.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return &TransitionError{From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// SetMaturityDate records the projected pay-off date. A date already set is
// never overwritten.
func (o *Order) SetMaturityDate(d calendar.Date) {
	if o.TanggalLunas != "" {
		return
	}
	o.TanggalLunas = d.Indonesian()
}

// =============================================================================
// DERIVED STATE
// =============================================================================

func (o *Order) PaymentsMade() int { return len(o.Payments) }

func (o *Order) RemainingCount() int {
	if r := o.Tenor - len(o.Payments); r > 0 {
		return r
	}
	return 0
}

func (o *Order) IsPaidInFull() bool { return len(o.Payments) >= o.Tenor }

// LateDays estimates how many installments the order is behind: business
// days elapsed since creation (inclusive of the creation day) minus
// payments made, floored at zero. Counting runs from creation regardless
// of when a collector was assigned.
func (o *Order) LateDays(today calendar.Date, holidays calendar.HolidaySet) int {
	expected := calendar.CountBusinessDays(o.CreationDate(), today, holidays)
	if late := expected - len(o.Payments); late > 0 {
		return late
	}
	return 0
}

// =============================================================================
// MERGED HISTORY
// =============================================================================

// HistoryEntry is one ledger event in the merged chronological view.
type HistoryEntry struct {
	Kind        HistoryKind `json:"kind"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Reason      string      `json:"reason,omitempty"`
	CollectedBy string      `json:"collectedBy"`
}

type HistoryKind string

const (
	HistoryPayment HistoryKind = "payment"
	HistoryVisit   HistoryKind = "visit"
)

// History merges payments and visit notes, newest first. Ordering key is
// the parsed business date, wall-clock time as tiebreak; same-stamp entries
// keep their relative append order.
func (o *Order) History() []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(o.Payments)+len(o.CollectionNotes))
	for _, p := range o.Payments {
		entries = append(entries, HistoryEntry{
			Kind: HistoryPayment, Date: p.Date, Time: p.Time, CollectedBy: p.CollectedBy,
		})
	}
	for _, n := range o.CollectionNotes {
		entries = append(entries, HistoryEntry{
			Kind: HistoryVisit, Date: n.Date, Time: n.Time, Reason: n.Reason, CollectedBy: n.CollectedBy,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, erri := calendar.ParseIndonesian(entries[i].Date)
		dj, errj := calendar.ParseIndonesian(entries[j].Date)
		// Unparseable dates sink to the end of the (descending) view.
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		if !di.Equal(dj) {
			return di.After(dj)
		}
		// "HH:MM" compares correctly as a string.
		return entries[i].Time > entries[j].Time
	})
	return entries
}
