/*
Package ledger implements the per-order collection ledger.

PURPOSE:
  Every installment order carries an append-only record of what happened in
  the field: payments received and visits that ended without payment. This
  package owns that record and the order lifecycle around it:

    Proses -> Pengiriman -> Terkirim -> Lunas

  The first two transitions are admin actions. Entering Terkirim fixes the
  maturity date (projected via the calendar package, once, permanently).
  Lunas is never set directly: it is the automatic consequence of the
  payment count reaching the tenor.

LEDGER INVARIANTS:
  1. APPEND-ONLY: payments and visit notes are never edited or removed.
  2. len(Payments) <= Tenor, always.
  3. Status is Lunas exactly when len(Payments) == Tenor.
  4. AssignedCollector and AssignedCollectorUID are both set or both empty.
  5. TanggalLunas (maturity date), once set, is never recomputed.

WIRE FORMAT:
  Event dates are Indonesian long-form strings ("5 Januari 2025") and times
  are "14:30" - the format the mobile clients and historical records use.
  Statuses and payment frequencies are the Indonesian words. JSON tags
  below ARE the wire contract; renaming one breaks stored data.

CONCURRENCY:
  Orders are mutated through Service (service.go) as one read-modify-write
  guarded by a version compare-and-swap in the store. The mutation methods
  in this file are pure in-memory operations on an already-loaded copy.

SEE ALSO:
  - ledger.go: mutation and derived-state methods
  - service.go: load/mutate/CAS-save orchestration
  - report: aggregates these ledgers into daily dashboards
*/
package ledger

import (
	"time"

	"github.com/tokocicil/collection-engine/calendar"
)

// =============================================================================
// STATUS - Order lifecycle
// =============================================================================

// Status is the order lifecycle state. Values are the Indonesian wire
// strings used by clients and stored records.
type Status string

const (
	StatusProcessing Status = "Proses"     // created, awaiting fulfilment
	StatusShipping   Status = "Pengiriman" // on its way to the consumer
	StatusDelivered  Status = "Terkirim"   // delivered, under collection
	StatusPaidOff    Status = "Lunas"      // all tenor installments paid
)

var validNext = map[Status]map[Status]bool{
	StatusProcessing: {StatusShipping: true},
	StatusShipping:   {StatusDelivered: true},
	// Terkirim -> Lunas only via RecordPayment, never as a direct action.
	StatusDelivered: {},
	StatusPaidOff:   {},
}

// CanTransition reports whether an admin may move an order from one status
// to the next directly.
func CanTransition(from, to Status) bool { return validNext[from][to] }

// ValidStatus reports whether s is one of the four lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusProcessing, StatusShipping, StatusDelivered, StatusPaidOff:
		return true
	}
	return false
}

// =============================================================================
// PAYMENT FREQUENCY
// =============================================================================

// Frequency is the payment cadence chosen at checkout.
type Frequency string

const (
	FrequencyDaily  Frequency = "harian"
	FrequencyWeekly Frequency = "mingguan" // one visit settles up to 6 daily installments
)

func ValidFrequency(f Frequency) bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// =============================================================================
// LEDGER EVENTS
// =============================================================================

// Payment records one installment received in the field. Immutable once
// appended.
type Payment struct {
	Date        string `json:"date"` // "5 Januari 2025"
	Time        string `json:"time"` // "14:30"
	CollectedBy string `json:"collectedBy"`
}

// VisitNote records a collector visit that ended without payment.
// Immutable once appended.
type VisitNote struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
	CollectedBy string `json:"collectedBy"`
}

// Enumerated no-payment reasons. Free text is allowed for "other"; the
// only requirement is that the reason is non-empty.
const (
	ReasonConsumerAbsent = "Konsumen tidak ada di tempat"
	ReasonDeferral       = "Minta penundaan"
	ReasonNoMoney        = "Tidak ada uang"
	ReasonOther          = "Lainnya"
)

// =============================================================================
// ORDER
// =============================================================================

// Collector identifies who acted on an order. Name is denormalized onto
// events because historical records only carry the display name.
type Collector struct {
	UID  string
	Name string
}

// Order is one installment purchase: a product financed over Tenor business
// days, plus the collection ledger accumulated against it.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderId"` // user-facing "#1234567"
	Date        string `json:"date"`    // creation date, Indonesian form

	ProductName      string    `json:"productName"`
	Tenor            int       `json:"tenor"` // total business-day installments
	InstallmentPrice int64     `json:"installmentPrice"`
	PaymentFrequency Frequency `json:"paymentFrequency"`
	Status           Status    `json:"status"`

	Payments        []Payment   `json:"payments"`
	CollectionNotes []VisitNote `json:"collectionNotes"`

	UserID        string `json:"userId"`
	ConsumerName  string `json:"consumerName"`
	ConsumerEmail string `json:"consumerEmail"`

	ShippingAddress string `json:"shippingAddress"`

	// Consumer profile snapshot captured at checkout. Profile edits after
	// checkout do not touch existing orders.
	JenisUsaha  string `json:"jenisUsaha"`
	AlamatUsaha string `json:"alamatUsaha"`
	AlamatRumah string `json:"alamatRumah"`
	NomorKtp    string `json:"nomorKtp"`
	NamaSales   string `json:"namaSales"`

	AssignedCollector    string `json:"assignedCollector,omitempty"`
	AssignedCollectorUID string `json:"assignedCollectorUid,omitempty"`

	// TanggalLunas is the projected maturity date, Indonesian form. Set
	// once when the order enters Terkirim, never recomputed.
	TanggalLunas string `json:"tanggalLunas,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Version guards the read-modify-write cycle. Incremented by the store
	// on every successful save.
	Version int64 `json:"-"`
}

// CreationDate returns the order's creation date as a calendar value.
// Falls back to the timestamp when the stored string does not parse.
func (o *Order) CreationDate() calendar.Date {
	if d, err := calendar.ParseIndonesian(o.Date); err == nil {
		return d
	}
	return calendar.DateOf(o.Timestamp)
}
