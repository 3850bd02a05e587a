package core

import (
	"testing"
	"time"
)

func TestMonthsBetweenIgnoresDayOfMonth(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"full year", date(2026, time.January, 1), date(2027, time.January, 1), 12},
		{"mid-month start counts whole month", date(2026, time.January, 15), date(2026, time.February, 1), 1},
		{"same month", date(2026, time.March, 1), date(2026, time.March, 31), 0},
		{"inverted range", date(2026, time.June, 1), date(2026, time.January, 1), -5},
		{"across year boundary", date(2025, time.November, 1), date(2026, time.February, 1), 3},
	}
	for _, tc := range cases {
		if got := MonthsBetween(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: MonthsBetween = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPaymentCount(t *testing.T) {
	start := date(2026, time.January, 1)
	cases := []struct {
		name string
		end  time.Time
		freq Frequency
		want int
	}{
		{"monthly over 12 months", date(2027, time.January, 1), FrequencyMonthly, 12},
		{"quarterly over 12 months", date(2027, time.January, 1), FrequencyQuarterly, 4},
		{"yearly over 12 months", date(2027, time.January, 1), FrequencyYearly, 1},
		{"quarterly over 14 months rounds up", date(2027, time.March, 1), FrequencyQuarterly, 5},
		{"yearly over 13 months rounds up", date(2027, time.February, 1), FrequencyYearly, 2},
		{"unknown frequency defaults to one", date(2027, time.January, 1), Frequency("weekly"), 1},
		{"zero-length range clamps to one", start, FrequencyMonthly, 1},
		{"inverted range clamps to one", date(2025, time.January, 1), FrequencyMonthly, 1},
	}
	for _, tc := range cases {
		if got := PaymentCount(start, tc.end, tc.freq); got != tc.want {
			t.Errorf("%s: PaymentCount = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestFrequencyMultiplier(t *testing.T) {
	if got := FrequencyMonthly.Multiplier(); got != 1 {
		t.Errorf("monthly multiplier = %d, want 1", got)
	}
	if got := FrequencyQuarterly.Multiplier(); got != 3 {
		t.Errorf("quarterly multiplier = %d, want 3", got)
	}
	if got := FrequencyYearly.Multiplier(); got != 12 {
		t.Errorf("yearly multiplier = %d, want 12", got)
	}
}

func TestComputeTotalPriceQuarterlyExample(t *testing.T) {
	// (100 + 10) * 3 per installment, 4 installments over 12 months = 1320.00.
	base := mustDec(t, "100")
	coverages := []CoverageRelation{{CoverageID: "c1", AdditionalCost: mustDec(t, "10")}}

	total := ComputeTotalPrice(base, coverages, nil, FrequencyQuarterly,
		date(2026, time.January, 1), date(2027, time.January, 1))

	if want := mustDec(t, "1320.00"); !total.Equal(want) {
		t.Fatalf("total = %s, want %s", total, want)
	}
}

func TestComputeTotalPriceBenefitsAndCoverages(t *testing.T) {
	base := mustDec(t, "49.90")
	coverages := []CoverageRelation{
		{AdditionalCost: mustDec(t, "5.25")},
		{AdditionalCost: mustDec(t, "2.10")},
	}
	benefits := []BenefitRelation{{AdditionalCost: mustDec(t, "1.05")}}

	// Monthly: 49.90 + 5.25 + 2.10 + 1.05 = 58.30 per installment, 6 months.
	total := ComputeTotalPrice(base, coverages, benefits, FrequencyMonthly,
		date(2026, time.January, 1), date(2026, time.July, 1))

	if want := mustDec(t, "349.80"); !total.Equal(want) {
		t.Fatalf("total = %s, want %s", total, want)
	}
}

func TestComputeTotalPriceRoundsHalfAwayFromZero(t *testing.T) {
	// 33.335 over a single monthly installment rounds to 33.34 on the cent
	// boundary.
	base := mustDec(t, "33.335")
	total := ComputeTotalPrice(base, nil, nil, FrequencyMonthly,
		date(2026, time.January, 1), date(2026, time.February, 1))

	if want := mustDec(t, "33.34"); !total.Equal(want) {
		t.Fatalf("total = %s, want %s", total, want)
	}
}

func TestPerInstallmentPriceScalesBaseByFrequency(t *testing.T) {
	// The base is a monthly rate like the add-ons; the whole sum scales to
	// the period: (10 + 2) * 12 = 144 for a yearly installment.
	base := mustDec(t, "10")
	benefits := []BenefitRelation{{AdditionalCost: mustDec(t, "2")}}

	per := PerInstallmentPrice(base, nil, benefits, FrequencyYearly)

	if want := mustDec(t, "144"); !per.Equal(want) {
		t.Fatalf("per installment = %s, want %s", per, want)
	}
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"monthly", "quarterly", "yearly"} {
		if _, err := ParseFrequency(valid); err != nil {
			t.Errorf("ParseFrequency(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseFrequency("biweekly"); err == nil {
		t.Error("ParseFrequency(biweekly) expected error")
	}
}
