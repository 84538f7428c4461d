/*
service.go - Ledger operations as load/mutate/conditional-save cycles

PURPOSE:
  Service is what the API layer calls. Each operation:

    1. loads the order
    2. applies the pure mutation from ledger.go
    3. saves with the store's version compare-and-swap
    4. on ErrConcurrentModification, re-reads and retries (bounded)

  Retrying is safe because every mutation re-checks its precondition
  against the freshly loaded state: a payment that raced another payment
  to the last installment fails step 2 with ErrAlreadyPaidOff on retry
  instead of overshooting the tenor.

HOLIDAYS:
  Entering Terkirim projects the maturity date, which needs the holiday
  calendar for the years the tenor spans. A failed lookup degrades to an
  empty holiday set - order processing never blocks on the holiday API.
  The degraded projection is logged; it only shifts the estimate, never
  the ledger itself.
*/
package ledger

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tokocicil/collection-engine/calendar"
	"github.com/tokocicil/collection-engine/holiday"
	"github.com/tokocicil/collection-engine/pricing"
)

// saveAttempts bounds the CAS retry loop per operation.
const saveAttempts = 3

// Clock returns "now"; swapped out in tests for deterministic stamps.
type Clock func() time.Time

// Service coordinates ledger mutations against the store.
type Service struct {
	Orders   OrderStore
	Holidays holiday.Source
	Now      Clock
}

func NewService(orders OrderStore, holidays holiday.Source) *Service {
	return &Service{Orders: orders, Holidays: holidays, Now: time.Now}
}

// =============================================================================
// CHECKOUT
// =============================================================================

// CartItem is one line of a consumer checkout.
type CartItem struct {
	ProductID string
	TenorDays int
	Frequency Frequency
}

// ProductInfo is the product data checkout needs; the caller resolves it
// from the catalog so this package stays free of catalog lookups.
type ProductInfo struct {
	ID         string
	Name       string
	HargaModal int64
	DP         int64
}

// ConsumerProfile is the snapshot copied onto each order at checkout.
type ConsumerProfile struct {
	UserID      string
	Name        string
	Email       string
	JenisUsaha  string
	AlamatUsaha string
	AlamatRumah string
	NomorKtp    string
	NamaSales   string
}

// Checkout creates one order for a cart item. The per-period installment is
// fixed here: the rounded daily amount for a daily cadence, six times that
// for a weekly cadence.
func (s *Service) Checkout(ctx context.Context, product ProductInfo, item CartItem, profile ConsumerProfile, shippingAddress string) (*Order, error) {
	opt, ok := pricing.FindTenor(item.TenorDays)
	if !ok {
		return nil, fmt.Errorf("unknown tenor %d days", item.TenorDays)
	}
	if !ValidFrequency(item.Frequency) {
		return nil, fmt.Errorf("unknown payment frequency %q", item.Frequency)
	}

	daily := pricing.DailyInstallment(product.HargaModal, product.DP, opt)
	price := daily
	if item.Frequency == FrequencyWeekly {
		price = pricing.WeeklyInstallment(daily)
	}

	now := s.Now()
	o := &Order{
		ID:               uuid.NewString(),
		OrderNumber:      NewOrderNumber(now),
		Date:             calendar.DateOf(now).Indonesian(),
		ProductName:      product.Name,
		Tenor:            opt.Days,
		InstallmentPrice: price,
		PaymentFrequency: item.Frequency,
		Status:           StatusProcessing,
		Payments:         []Payment{},
		CollectionNotes:  []VisitNote{},
		UserID:           profile.UserID,
		ConsumerName:     profile.Name,
		ConsumerEmail:    profile.Email,
		ShippingAddress:  shippingAddress,
		JenisUsaha:       profile.JenisUsaha,
		AlamatUsaha:      profile.AlamatUsaha,
		AlamatRumah:      profile.AlamatRumah,
		NomorKtp:         profile.NomorKtp,
		NamaSales:        profile.NamaSales,
		Timestamp:        now,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// NewOrderNumber builds the user-facing order number: "#" + the last five
// digits of the unix-millisecond clock + two random digits.
func NewOrderNumber(now time.Time) string {
	ms := now.UnixMilli() % 100000
	return fmt.Sprintf("#%05d%02d", ms, rand.Intn(100))
}

// =============================================================================
// COLLECTION OPERATIONS
// =============================================================================

// RecordPayment settles installments on an order as the given collector.
// Returns the refreshed order and how many daily installments were settled.
func (s *Service) RecordPayment(ctx context.Context, orderID string, by Collector) (*Order, int, error) {
	var (
		order *Order
		added int
	)
	err := s.withRetry(ctx, orderID, func(o *Order) error {
		n, err := o.RecordPayment(by, s.Now())
		if err != nil {
			return err
		}
		order, added = o, n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return order, added, nil
}

// RecordVisitNote records a no-payment visit as the given collector.
func (s *Service) RecordVisitNote(ctx context.Context, orderID string, by Collector, reason string) (*Order, error) {
	var order *Order
	err := s.withRetry(ctx, orderID, func(o *Order) error {
		if err := o.RecordVisitNote(by, reason, s.Now()); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

// UpdateStatus moves an order along the lifecycle. Entering Terkirim fixes
// the maturity date using the order's creation date, its tenor, and the
// current holiday calendar.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to Status) (*Order, error) {
	var order *Order
	err := s.withRetry(ctx, orderID, func(o *Order) error {
		if err := o.Transition(to); err != nil {
			return err
		}
		if to == StatusDelivered && o.TanggalLunas == "" {
			o.SetMaturityDate(s.projectMaturity(ctx, o))
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AssignCollector sets the collector pair on an order.
func (s *Service) AssignCollector(ctx context.Context, orderID, collectorUID, collectorName string) (*Order, error) {
	var order *Order
	err := s.withRetry(ctx, orderID, func(o *Order) error {
		if err := o.AssignCollector(collectorUID, collectorName); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// projectMaturity runs the business-day projection with whatever holiday
// data is reachable. The tenor may cross a year boundary, so both the start
// year and the following year are fetched.
func (s *Service) projectMaturity(ctx context.Context, o *Order) calendar.Date {
	start := o.CreationDate()

	holidays := calendar.HolidaySet{}
	if s.Holidays != nil {
		for _, year := range []int{start.Year, start.Year + 1} {
			hs, err := s.Holidays.Holidays(ctx, year)
			if err != nil {
				log.Printf("holiday lookup failed for %d, projecting without holidays: %v", year, err)
				continue
			}
			for d := range hs {
				holidays[d] = struct{}{}
			}
		}
	}
	return calendar.AddBusinessDays(start, o.Tenor, holidays)
}

// =============================================================================
// RETRY LOOP
// =============================================================================

// withRetry runs one load/mutate/save cycle, retrying only on version
// conflicts. Any other error aborts immediately with no partial mutation
// persisted.
func (s *Service) withRetry(ctx context.Context, orderID string, mutate func(*Order) error) error {
	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		o, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := mutate(o); err != nil {
			return err
		}
		err = s.Orders.Save(ctx, o)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
