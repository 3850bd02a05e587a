package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pricing is pure computation; no I/O. All money flows through
// decimal.Decimal and is settled to 2 places (round half away from zero) only
// at the total, never per intermediate term.

// MonthsBetween returns the whole-month span between two dates, comparing
// year/month components only. Day-of-month is intentionally ignored: Jan 15 to
// Feb 1 counts as one month. Billing products are sold on month-aligned terms
// and the schedule math depends on this exact behavior.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// PaymentCount is the number of installments a contract produces over its
// date range at the given frequency. Spans shorter than one period, and
// degenerate (zero or inverted) ranges, clamp to a single installment
// covering the whole contract; rejecting bad ranges is the caller's job.
func PaymentCount(start, end time.Time, f Frequency) int {
	months := MonthsBetween(start, end)

	var count int
	switch f {
	case FrequencyMonthly:
		count = months
	case FrequencyQuarterly:
		count = ceilDiv(months, 3)
	case FrequencyYearly:
		count = ceilDiv(months, 12)
	default:
		count = 1
	}

	if count < 1 {
		count = 1
	}
	return count
}

// PerInstallmentPrice is the price of one billing period: the base price plus
// every coverage and benefit add-on, all quoted as monthly rates, scaled to
// the period by the frequency multiplier.
func PerInstallmentPrice(basePrice decimal.Decimal, coverages []CoverageRelation, benefits []BenefitRelation, f Frequency) decimal.Decimal {
	price := basePrice
	for _, c := range coverages {
		price = price.Add(c.AdditionalCost)
	}
	for _, b := range benefits {
		price = price.Add(b.AdditionalCost)
	}
	return price.Mul(decimal.NewFromInt(f.Multiplier()))
}

// ComputeTotalPrice computes the total contract cost: per-installment price
// times installment count, rounded to the cent.
func ComputeTotalPrice(basePrice decimal.Decimal, coverages []CoverageRelation, benefits []BenefitRelation, f Frequency, start, end time.Time) decimal.Decimal {
	per := PerInstallmentPrice(basePrice, coverages, benefits, f)
	count := PaymentCount(start, end, f)
	return per.Mul(decimal.NewFromInt(int64(count))).Round(2)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
