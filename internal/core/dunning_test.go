package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type dunningFixture struct {
	contracts *memContractRepo
	txns      *memTransactionRepo
	methods   *memPaymentMethodRepo
	processor *scriptedProcessor
	engine    DunningEngine
}

func newDunningFixture(outcomes ...error) *dunningFixture {
	txns := newMemTransactionRepo()
	f := &dunningFixture{
		contracts: newMemContractRepo(txns),
		txns:      txns,
		methods:   newMemPaymentMethodRepo(),
		processor: &scriptedProcessor{outcomes: outcomes},
	}
	f.engine = NewDunningEngine(f.contracts, f.txns, f.methods, f.processor, testLogger())
	return f
}

func (f *dunningFixture) seedContract(t *testing.T, id string, withMethod bool, valid bool) Contract {
	t.Helper()
	c := Contract{
		ID:          id,
		Number:      "CT-2026-0001",
		ClientID:    "cl-1",
		InsuranceID: "ins-1",
		Status:      ContractStatusActive,
		Frequency:   FrequencyMonthly,
		StartDate:   date(2026, time.January, 1),
		EndDate:     date(2027, time.January, 1),
		TotalAmount: mustDec(t, "1200.00"),
	}
	if withMethod {
		pm := PaymentMethod{ID: "pm-" + id, ClientID: c.ClientID, Holder: "A B", Token: "tok", Valid: valid}
		if err := f.methods.Create(context.Background(), pm); err != nil {
			t.Fatalf("seed method: %v", err)
		}
		c.PaymentMethodID = pm.ID
	}
	if err := f.contracts.Create(context.Background(), c); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return c
}

func (f *dunningFixture) seedTxn(t *testing.T, id, contractID string, status TransactionStatus, retries int) Transaction {
	t.Helper()
	txn := Transaction{
		ID:              id,
		ContractID:      contractID,
		Amount:          mustDec(t, "100.00"),
		Status:          status,
		RetryCount:      retries,
		NextPaymentDate: date(2026, time.January, 1),
	}
	if err := f.txns.BulkCreate(context.Background(), []Transaction{txn}); err != nil {
		t.Fatalf("seed txn: %v", err)
	}
	return txn
}

func TestDunningSettlesPendingTransaction(t *testing.T) {
	f := newDunningFixture() // all charges approved
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	asOf := date(2026, time.February, 1)
	report, err := f.engine.Process(context.Background(), asOf)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if report.Settled != 1 || report.Selected != 1 {
		t.Fatalf("report = %+v, want 1 selected 1 settled", report)
	}

	got, _ := f.txns.Get(context.Background(), "tx-1")
	if got.Status != TransactionStatusSuccess {
		t.Fatalf("status = %s, want success", got.Status)
	}
	// Next cycle seeded one billing period out from the run date.
	if want := date(2026, time.March, 1); !got.NextPaymentDate.Equal(want) {
		t.Fatalf("next payment date = %s, want %s", got.NextPaymentDate, want)
	}
	if got.NextRetryPaymentDate != nil {
		t.Fatal("next retry date should be cleared on success")
	}
}

func TestDunningFailureSchedulesRetry(t *testing.T) {
	f := newDunningFixture(errors.New("card declined"))
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	asOf := date(2026, time.February, 1)
	if _, err := f.engine.Process(context.Background(), asOf); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := f.txns.Get(context.Background(), "tx-1")
	if got.Status != TransactionStatusInRetry {
		t.Fatalf("status = %s, want in_retry", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", got.RetryCount)
	}
	if got.NextRetryPaymentDate == nil {
		t.Fatal("next retry date not set")
	}
	if want := asOf.AddDate(0, 0, RetryIntervalDays); !got.NextRetryPaymentDate.Equal(want) {
		t.Fatalf("next retry = %s, want %s", got.NextRetryPaymentDate, want)
	}

	// Contract untouched while retries remain.
	gotContract, _ := f.contracts.Get(context.Background(), c.ID)
	if gotContract.Status != ContractStatusActive {
		t.Fatalf("contract status = %s, want active", gotContract.Status)
	}
}

func TestDunningExhaustionDeactivatesContract(t *testing.T) {
	f := newDunningFixture(errors.New("card declined"))
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)
	ctx := context.Background()

	// Four consecutive failing passes; retry dates are respected by advancing
	// the as-of date past each scheduled retry.
	asOf := date(2026, time.February, 1)
	for i := 0; i < MaxRetryCount; i++ {
		if _, err := f.engine.Process(ctx, asOf); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		asOf = asOf.AddDate(0, 0, RetryIntervalDays)
	}

	got, _ := f.txns.Get(ctx, "tx-1")
	if got.Status != TransactionStatusFailed {
		t.Fatalf("final status = %s, want failed (not in_retry)", got.Status)
	}
	if got.RetryCount != MaxRetryCount {
		t.Fatalf("retry count = %d, want %d", got.RetryCount, MaxRetryCount)
	}

	gotContract, _ := f.contracts.Get(ctx, c.ID)
	if gotContract.Status != ContractStatusInactive {
		t.Fatalf("contract status = %s, want inactive", gotContract.Status)
	}

	// Terminal transaction is no longer selected; a further run is a no-op.
	report, err := f.engine.Process(ctx, asOf)
	if err != nil {
		t.Fatalf("post-exhaustion pass: %v", err)
	}
	if report.Selected != 0 {
		t.Fatalf("selected = %d after exhaustion, want 0", report.Selected)
	}
}

func TestDunningSettledTransactionIsNoOp(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusSuccess, 0)

	report, err := f.engine.Process(context.Background(), date(2026, time.February, 1))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if report.Selected != 0 {
		t.Fatalf("selected = %d, want 0 for settled transaction", report.Selected)
	}
	if f.processor.calls != 0 {
		t.Fatalf("processor called %d times, want 0", f.processor.calls)
	}
}

func TestDunningInvalidPaymentMethodSkipsProcessor(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", true, false) // method present but invalidated
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	if _, err := f.engine.Process(context.Background(), date(2026, time.February, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if f.processor.calls != 0 {
		t.Fatalf("processor called %d times for invalid method, want 0", f.processor.calls)
	}
	got, _ := f.txns.Get(context.Background(), "tx-1")
	if got.Status != TransactionStatusInRetry || got.RetryCount != 1 {
		t.Fatalf("got status=%s retries=%d, want in_retry/1", got.Status, got.RetryCount)
	}
}

func TestDunningMissingPaymentMethodFailsCharge(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", false, false) // no method linked
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	if _, err := f.engine.Process(context.Background(), date(2026, time.February, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	got, _ := f.txns.Get(context.Background(), "tx-1")
	if got.Status != TransactionStatusInRetry {
		t.Fatalf("status = %s, want in_retry", got.Status)
	}
}

func TestDunningFaultIsolation(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)
	f.seedTxn(t, "tx-2", c.ID, TransactionStatusPending, 0)
	f.seedTxn(t, "tx-3", c.ID, TransactionStatusPending, 0)

	// Persisting tx-2 blows up; the others must still settle.
	f.txns.updateErr["tx-2"] = errors.New("store offline")

	report, err := f.engine.Process(context.Background(), date(2026, time.February, 1))
	if err != nil {
		t.Fatalf("process must complete despite per-transaction faults: %v", err)
	}
	if report.Settled != 2 {
		t.Fatalf("settled = %d, want 2", report.Settled)
	}
	if report.Faulted != 1 {
		t.Fatalf("faulted = %d, want 1", report.Faulted)
	}

	for _, id := range []string{"tx-1", "tx-3"} {
		got, _ := f.txns.Get(context.Background(), id)
		if got.Status != TransactionStatusSuccess {
			t.Errorf("%s status = %s, want success", id, got.Status)
		}
	}
}

func TestDunningProcessorErrorEqualsDecline(t *testing.T) {
	f := newDunningFixture(context.DeadlineExceeded)
	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	if _, err := f.engine.Process(context.Background(), date(2026, time.February, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	got, _ := f.txns.Get(context.Background(), "tx-1")
	if got.Status != TransactionStatusInRetry || got.RetryCount != 1 {
		t.Fatalf("timeout must count as decline: status=%s retries=%d", got.Status, got.RetryCount)
	}
}

func TestDunningRetryNotDueIsSkipped(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", true, true)
	txn := f.seedTxn(t, "tx-1", c.ID, TransactionStatusInRetry, 1)
	retryAt := date(2026, time.March, 1)
	txn.NextRetryPaymentDate = &retryAt
	if err := f.txns.Update(context.Background(), txn); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	report, err := f.engine.Process(context.Background(), date(2026, time.February, 1))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if report.Selected != 0 {
		t.Fatalf("selected = %d, want 0 before retry date", report.Selected)
	}
}

func TestDunningSingleFlight(t *testing.T) {
	f := newDunningFixture()
	c := f.seedContract(t, "ct-1", true, true)
	for i := 0; i < 20; i++ {
		f.seedTxn(t, "tx-"+string(rune('a'+i)), c.ID, TransactionStatusPending, 0)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var busy, ran int
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Process(context.Background(), date(2026, time.February, 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrDunningInProgress):
				busy++
			case err == nil:
				ran++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ran == 0 {
		t.Fatal("no run completed")
	}
	if busy+ran != 4 {
		t.Fatalf("busy=%d ran=%d, want them to account for all 4 attempts", busy, ran)
	}

	// No transaction may have been charged more often than the completed runs.
	if f.processor.calls > ran*20 {
		t.Fatalf("processor calls = %d with %d completed runs", f.processor.calls, ran)
	}
}

func TestDunningAmountsChargedMatchInstallments(t *testing.T) {
	var charged []decimal.Decimal
	f := newDunningFixture()
	recorder := &recordingProcessor{inner: f.processor, amounts: &charged}
	f.engine = NewDunningEngine(f.contracts, f.txns, f.methods, recorder, testLogger())

	c := f.seedContract(t, "ct-1", true, true)
	f.seedTxn(t, "tx-1", c.ID, TransactionStatusPending, 0)

	if _, err := f.engine.Process(context.Background(), date(2026, time.February, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(charged) != 1 || !charged[0].Equal(mustDec(t, "100.00")) {
		t.Fatalf("charged = %v, want one charge of 100.00", charged)
	}
}

type recordingProcessor struct {
	inner   PaymentProcessor
	amounts *[]decimal.Decimal
	mu      sync.Mutex
}

func (p *recordingProcessor) Charge(ctx context.Context, m PaymentMethod, amount decimal.Decimal) error {
	p.mu.Lock()
	*p.amounts = append(*p.amounts, amount)
	p.mu.Unlock()
	return p.inner.Charge(ctx, m, amount)
}
