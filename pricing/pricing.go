/*
Package pricing derives per-period installment amounts from product pricing.

PURPOSE:
  When a consumer checks out, the per-business-day installment is fixed for
  the life of the order:

    raw   = (hargaModal - dp) * multiplier / tenorDays
    daily = CustomRound(raw)
    weekly = daily * 6          (a billing week is Mon-Sat)

ROUNDING RULE:
  CustomRound is a business rule, not a convenience. Amounts snap to "nice"
  rupiah figures biased toward round thousands with a single 500 midpoint:

    remainder of price mod 1000:
      0          -> unchanged
      1..700     -> round to ...500
      701..999   -> round up to next ...000

  Collectors handle cash; odd amounts like Rp 18.342 are not collectible in
  the field. The exact thresholds are fixed by the catalogue owners.

PRECISION:
  Multipliers (1.20, 1.25, ...) and the raw division go through
  decimal.Decimal so the rounding rule sees exact remainders, never float
  artifacts. Rounded results are whole rupiah, carried as int64 everywhere
  downstream.

TENOR CATALOGUE:
  A fixed five-entry catalogue. Tenor is never user-supplied raw: callers
  select an entry by day count, and an unknown day count is a validation
  failure before any order exists. A zero tenor reaching DailyInstallment
  therefore indicates a broken invariant upstream and panics.
*/
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TENOR CATALOGUE - Static configuration
// =============================================================================

// TenorOption is one catalogue entry: tenor length in business days, the
// markup multiplier applied to the financed amount, and the display label.
type TenorOption struct {
	Days       int
	Multiplier decimal.Decimal
	Label      string
}

// TenorOptions is the shipped catalogue. Multipliers increase with tenor
// length; that is a configuration fact, not something the code enforces.
var TenorOptions = []TenorOption{
	{Days: 60, Multiplier: decimal.RequireFromString("1.20"), Label: "60 Hari"},
	{Days: 90, Multiplier: decimal.RequireFromString("1.25"), Label: "90 Hari"},
	{Days: 120, Multiplier: decimal.RequireFromString("1.30"), Label: "120 Hari"},
	{Days: 150, Multiplier: decimal.RequireFromString("1.35"), Label: "150 Hari"},
	{Days: 180, Multiplier: decimal.RequireFromString("1.40"), Label: "180 Hari"},
}

// FindTenor looks up a catalogue entry by day count. No interpolation
// between entries: an unknown day count is simply not offered.
func FindTenor(days int) (TenorOption, bool) {
	for _, opt := range TenorOptions {
		if opt.Days == days {
			return opt, true
		}
	}
	return TenorOption{}, false
}

// =============================================================================
// ROUNDING
// =============================================================================

var (
	thousand    = decimal.NewFromInt(1000)
	fiveHundred = decimal.NewFromInt(500)
	sevenHundred = decimal.NewFromInt(700)
)

// CustomRound applies the field-collection rounding rule and returns whole
// rupiah. See the package comment for the rule; it must be reproduced
// exactly as stated there.
func CustomRound(price decimal.Decimal) int64 {
	base := price.Div(thousand).Floor().Mul(thousand)
	remainder := price.Sub(base)

	switch {
	case remainder.IsZero():
		return price.IntPart()
	case remainder.LessThanOrEqual(sevenHundred):
		return base.Add(fiveHundred).IntPart()
	default:
		return base.Add(thousand).IntPart()
	}
}

// =============================================================================
// INSTALLMENT CALCULATION
// =============================================================================

// DailyInstallment computes the rounded per-business-day amount for a
// product financed at (hargaModal - dp) over the given tenor option.
//
// Panics on a non-positive tenor: tenor always comes from the fixed
// catalogue, so a zero here means an invariant broke upstream.
func DailyInstallment(hargaModal, dp int64, opt TenorOption) int64 {
	if opt.Days <= 0 {
		panic(fmt.Sprintf("pricing: non-positive tenor %d", opt.Days))
	}
	raw := decimal.NewFromInt(hargaModal - dp).
		Mul(opt.Multiplier).
		Div(decimal.NewFromInt(int64(opt.Days)))
	return CustomRound(raw)
}

// WeeklyInstallment is always exactly six times the rounded daily figure -
// a billing week is the six business days Monday through Saturday. It is
// not independently rounded.
func WeeklyInstallment(daily int64) int64 { return daily * 6 }
