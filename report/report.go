/*
Package report aggregates collection ledgers into daily dashboards.

PURPOSE:
  Answers the end-of-day questions: how much cash came in, how many
  consumers were visited, how often did a visit produce a payment, and who
  said what when it didn't. One report covers one target business date over
  a set of orders, optionally narrowed to one collector, plus a
  per-collector breakdown for the portfolio view.

MATCHING:
  "Same day" means the event's stored date string equals the target date
  rendered in the same Indonesian long form. The target arrives as a
  calendar.Date and is formatted once here, so write and read paths cannot
  drift apart.

  The collector filter matches assigned uid OR display name: orders from
  before uid assignment was introduced only carry the name.
*/
package report

import (
	"math"

	"github.com/tokocicil/collection-engine/calendar"
	"github.com/tokocicil/collection-engine/ledger"
)

// FilterAll selects every collector.
const FilterAll = "all"

// =============================================================================
// REPORT TYPES
// =============================================================================

// Daily is the aggregate for one target date.
type Daily struct {
	Date string `json:"date"` // Indonesian long form

	AmountCollected int64 `json:"amountCollected"`
	VisitCount      int   `json:"visitCount"`  // distinct orders with any same-date event
	SuccessRate     int   `json:"successRate"` // 0-100
	ActiveBillCount int   `json:"activeBillCount"`

	Paid   []PaidEntry   `json:"paid"`
	Unpaid []UnpaidEntry `json:"unpaid"`

	Collectors []CollectorSummary `json:"collectors,omitempty"`
}

// PaidEntry is one order that paid on the target date.
type PaidEntry struct {
	OrderNumber  string `json:"orderId"`
	ConsumerName string `json:"consumerName"`
	Amount       int64  `json:"amount"`
	Time         string `json:"time"`
	Collector    string `json:"collector"`
}

// UnpaidEntry is one order visited without payment on the target date.
type UnpaidEntry struct {
	OrderNumber  string `json:"orderId"`
	ConsumerName string `json:"consumerName"`
	Reason       string `json:"reason"`
	Collector    string `json:"collector"`
}

// CollectorSummary is the same computation scoped to one collector.
type CollectorSummary struct {
	CollectorUID    string `json:"collectorUid,omitempty"`
	CollectorName   string `json:"collectorName"`
	AmountCollected int64  `json:"amountCollected"`
	VisitCount      int    `json:"visitCount"`
	SuccessRate     int    `json:"successRate"`
	ActiveBillCount int    `json:"activeBillCount"`
}

// =============================================================================
// AGGREGATION
// =============================================================================

// BuildDaily produces the report for target over the given orders.
// collectorFilter narrows to one collector by uid or display name; "" or
// FilterAll keeps everything. The unfiltered report carries the
// per-collector breakdown.
func BuildDaily(orders []*ledger.Order, target calendar.Date, collectorFilter string) Daily {
	scoped := filterByCollector(orders, collectorFilter)
	d := aggregate(scoped, target)

	if collectorFilter == "" || collectorFilter == FilterAll {
		d.Collectors = breakdown(orders, target)
	}
	return d
}

func aggregate(orders []*ledger.Order, target calendar.Date) Daily {
	dateStr := target.Indonesian()
	d := Daily{Date: dateStr, Paid: []PaidEntry{}, Unpaid: []UnpaidEntry{}}

	paid, unpaid := 0, 0
	for _, o := range orders {
		if o.Status == ledger.StatusDelivered {
			d.ActiveBillCount++
		}

		payment, hasPayment := paymentOn(o, dateStr)
		note, hasNote := noteOn(o, dateStr)

		if hasPayment {
			paid++
			d.AmountCollected += o.InstallmentPrice
			d.Paid = append(d.Paid, PaidEntry{
				OrderNumber:  o.OrderNumber,
				ConsumerName: o.ConsumerName,
				Amount:       o.InstallmentPrice,
				Time:         payment.Time,
				Collector:    payment.CollectedBy,
			})
		}
		if hasNote {
			unpaid++
			d.Unpaid = append(d.Unpaid, UnpaidEntry{
				OrderNumber:  o.OrderNumber,
				ConsumerName: o.ConsumerName,
				Reason:       note.Reason,
				Collector:    note.CollectedBy,
			})
		}
		if hasPayment || hasNote {
			d.VisitCount++
		}
	}

	if paid+unpaid > 0 {
		d.SuccessRate = int(math.Round(100 * float64(paid) / float64(paid+unpaid)))
	}
	return d
}

func breakdown(orders []*ledger.Order, target calendar.Date) []CollectorSummary {
	// Keyed by uid when present, otherwise by name (historical orders).
	type group struct {
		uid, name string
		orders    []*ledger.Order
	}
	var keys []string
	groups := map[string]*group{}

	for _, o := range orders {
		if o.AssignedCollectorUID == "" && o.AssignedCollector == "" {
			continue
		}
		key := o.AssignedCollectorUID
		if key == "" {
			key = o.AssignedCollector
		}
		g, ok := groups[key]
		if !ok {
			g = &group{uid: o.AssignedCollectorUID, name: o.AssignedCollector}
			groups[key] = g
			keys = append(keys, key)
		}
		g.orders = append(g.orders, o)
	}

	summaries := make([]CollectorSummary, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		agg := aggregate(g.orders, target)
		summaries = append(summaries, CollectorSummary{
			CollectorUID:    g.uid,
			CollectorName:   g.name,
			AmountCollected: agg.AmountCollected,
			VisitCount:      agg.VisitCount,
			SuccessRate:     agg.SuccessRate,
			ActiveBillCount: agg.ActiveBillCount,
		})
	}
	return summaries
}

// =============================================================================
// HELPERS
// =============================================================================

func filterByCollector(orders []*ledger.Order, filter string) []*ledger.Order {
	if filter == "" || filter == FilterAll {
		return orders
	}
	var out []*ledger.Order
	for _, o := range orders {
		if o.AssignedCollectorUID == filter || o.AssignedCollector == filter {
			out = append(out, o)
		}
	}
	return out
}

// paymentOn returns the first payment stamped with the target date.
func paymentOn(o *ledger.Order, dateStr string) (ledger.Payment, bool) {
	for _, p := range o.Payments {
		if p.Date == dateStr {
			return p, true
		}
	}
	return ledger.Payment{}, false
}

// noteOn returns the first visit note stamped with the target date.
func noteOn(o *ledger.Order, dateStr string) (ledger.VisitNote, bool) {
	for _, n := range o.CollectionNotes {
		if n.Date == dateStr {
			return n, true
		}
	}
	return ledger.VisitNote{}, false
}
