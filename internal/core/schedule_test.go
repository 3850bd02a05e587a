package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func pricedContract(t *testing.T, total string, freq Frequency, start, end time.Time) Contract {
	t.Helper()
	return Contract{
		ID:          "ct-1",
		Number:      "CT-2026-000001",
		ClientID:    "cl-1",
		InsuranceID: "ins-1",
		Status:      ContractStatusAwaitingConfirmation,
		Frequency:   freq,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: mustDec(t, total),
	}
}

func sumAmounts(txns []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	return sum
}

func TestBuildScheduleQuarterlyTwelveMonths(t *testing.T) {
	start := date(2026, time.January, 1)
	c := pricedContract(t, "1320.00", FrequencyQuarterly, start, date(2027, time.January, 1))

	txns := BuildSchedule(c, time.Now())

	if len(txns) != 4 {
		t.Fatalf("installments = %d, want 4", len(txns))
	}
	for i, txn := range txns {
		wantDue := start.AddDate(0, 3*i, 0)
		if !txn.NextPaymentDate.Equal(wantDue) {
			t.Errorf("installment %d due %s, want %s", i, txn.NextPaymentDate, wantDue)
		}
		if txn.Status != TransactionStatusPending {
			t.Errorf("installment %d status = %s, want pending", i, txn.Status)
		}
		if txn.RetryCount != 0 {
			t.Errorf("installment %d retry count = %d, want 0", i, txn.RetryCount)
		}
		if want := mustDec(t, "330.00"); !txn.Amount.Equal(want) {
			t.Errorf("installment %d amount = %s, want %s", i, txn.Amount, want)
		}
	}
	if !txns[0].NextPaymentDate.Equal(start) {
		t.Errorf("first installment due %s, want start date %s", txns[0].NextPaymentDate, start)
	}
}

func TestBuildScheduleYearlySingleInstallment(t *testing.T) {
	c := pricedContract(t, "1320.00", FrequencyYearly,
		date(2026, time.January, 1), date(2027, time.January, 1))

	txns := BuildSchedule(c, time.Now())

	if len(txns) != 1 {
		t.Fatalf("installments = %d, want 1", len(txns))
	}
	if !txns[0].Amount.Equal(c.TotalAmount) {
		t.Fatalf("amount = %s, want full total %s", txns[0].Amount, c.TotalAmount)
	}
	if !txns[0].NextPaymentDate.Equal(c.StartDate) {
		t.Fatalf("due %s, want start date %s", txns[0].NextPaymentDate, c.StartDate)
	}
}

func TestBuildScheduleMonthlyExactSplit(t *testing.T) {
	c := pricedContract(t, "1200.00", FrequencyMonthly,
		date(2026, time.January, 1), date(2027, time.January, 1))

	txns := BuildSchedule(c, time.Now())

	if len(txns) != 12 {
		t.Fatalf("installments = %d, want 12", len(txns))
	}
	for i, txn := range txns {
		if want := mustDec(t, "100.00"); !txn.Amount.Equal(want) {
			t.Errorf("installment %d amount = %s, want %s", i, txn.Amount, want)
		}
	}
	// Last installment: 1200 - 100*11 = 100.00 exactly, no drift.
	if !sumAmounts(txns).Equal(c.TotalAmount) {
		t.Fatalf("sum = %s, want %s", sumAmounts(txns), c.TotalAmount)
	}
}

func TestBuildScheduleLastInstallmentAbsorbsRounding(t *testing.T) {
	// 1000 / 12 = 83.33 rounded; 11 * 83.33 = 916.63; last = 83.37.
	c := pricedContract(t, "1000.00", FrequencyMonthly,
		date(2026, time.January, 1), date(2027, time.January, 1))

	txns := BuildSchedule(c, time.Now())

	if len(txns) != 12 {
		t.Fatalf("installments = %d, want 12", len(txns))
	}
	flat := mustDec(t, "83.33")
	for i := 0; i < 11; i++ {
		if !txns[i].Amount.Equal(flat) {
			t.Errorf("installment %d amount = %s, want %s", i, txns[i].Amount, flat)
		}
	}
	if want := mustDec(t, "83.37"); !txns[11].Amount.Equal(want) {
		t.Errorf("last installment = %s, want %s", txns[11].Amount, want)
	}
	if !sumAmounts(txns).Equal(c.TotalAmount) {
		t.Fatalf("sum = %s, want exactly %s", sumAmounts(txns), c.TotalAmount)
	}
}

func TestBuildScheduleSumInvariantOddAmounts(t *testing.T) {
	amounts := []string{"999.99", "0.01", "123.45", "7777.77"}
	ends := []time.Time{
		date(2026, time.August, 1),  // 7 months
		date(2027, time.June, 1),    // 17 months
		date(2029, time.January, 1), // 36 months
	}
	for _, amt := range amounts {
		for _, end := range ends {
			for _, freq := range []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencyYearly} {
				c := pricedContract(t, amt, freq, date(2026, time.January, 1), end)
				txns := BuildSchedule(c, time.Now())
				if !sumAmounts(txns).Equal(c.TotalAmount) {
					t.Errorf("total %s freq %s end %s: sum %s != total",
						amt, freq, end.Format("2006-01"), sumAmounts(txns))
				}
			}
		}
	}
}

func TestGenerateRejectsUnpricedContract(t *testing.T) {
	gen := NewScheduleGenerator(newMemTransactionRepo(), testLogger())
	c := Contract{ID: "ct-1", Frequency: FrequencyMonthly,
		StartDate: date(2026, time.January, 1), EndDate: date(2027, time.January, 1)}

	if _, err := gen.Generate(context.Background(), c); err == nil {
		t.Fatal("expected error for unpriced contract")
	}
}

func TestRegenerateDropsStaleSchedule(t *testing.T) {
	repo := newMemTransactionRepo()
	gen := NewScheduleGenerator(repo, testLogger())
	ctx := context.Background()

	c := pricedContract(t, "1200.00", FrequencyMonthly,
		date(2026, time.January, 1), date(2027, time.January, 1))
	if _, err := gen.Generate(ctx, c); err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Frequency change: the old 12 installments must be gone.
	c.Frequency = FrequencyQuarterly
	txns, err := gen.Regenerate(ctx, c)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(txns) != 4 {
		t.Fatalf("installments after regenerate = %d, want 4", len(txns))
	}

	stored, err := repo.ListByContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("stored installments = %d, want 4 (stale schedule must not survive)", len(stored))
	}
}
