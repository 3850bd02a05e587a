package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	// MaxRetryCount is how many failed settlement attempts a transaction gets
	// before its contract is deactivated.
	MaxRetryCount = 4

	// RetryIntervalDays is the gap between settlement retries.
	RetryIntervalDays = 4

	// dunningBatchLimit caps one pass; anything left over is picked up by the
	// next run.
	dunningBatchLimit = 500

	// chargeTimeout bounds one processor call. A timeout counts as a decline.
	chargeTimeout = 30 * time.Second
)

// DunningReport summarizes one dunning pass.
type DunningReport struct {
	Selected    int       `json:"selected"`
	Settled     int       `json:"settled"`
	Retried     int       `json:"retried"`
	Exhausted   int       `json:"exhausted"`
	Faulted     int       `json:"faulted"`
	AsOf        time.Time `json:"as_of"`
	CompletedAt time.Time `json:"completed_at"`
}

// DunningEngine drives the retry-and-deactivate state machine over due
// transactions. It is the only component that mutates transaction status.
type DunningEngine interface {
	// Process runs one dunning pass as of the given instant. Settlement
	// failures feed the state machine and are never surfaced; the batch
	// always completes. Overlapping invocations are rejected with
	// ErrDunningInProgress.
	Process(ctx context.Context, asOf time.Time) (DunningReport, error)
}

var ErrDunningInProgress = fmt.Errorf("%w: a dunning pass is already running", ErrConflict)

type dunningEngine struct {
	contracts    ContractRepo
	transactions TransactionRepo
	methods      PaymentMethodRepo
	processor    PaymentProcessor
	log          *slog.Logger

	// Single-flight gate: the worker and the admin endpoint share one engine,
	// and two concurrent passes over the same snapshot would double-count
	// retries.
	running atomic.Bool
}

func NewDunningEngine(
	contracts ContractRepo,
	transactions TransactionRepo,
	methods PaymentMethodRepo,
	processor PaymentProcessor,
	log *slog.Logger,
) DunningEngine {
	return &dunningEngine{
		contracts:    contracts,
		transactions: transactions,
		methods:      methods,
		processor:    processor,
		log:          log,
	}
}

func (e *dunningEngine) Process(ctx context.Context, asOf time.Time) (DunningReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		return DunningReport{}, ErrDunningInProgress
	}
	defer e.running.Store(false)

	report := DunningReport{AsOf: asOf}

	// One selection snapshot up front: each transaction goes through the
	// state machine exactly once per pass.
	due, err := e.transactions.FindDue(ctx, asOf, MaxRetryCount, dunningBatchLimit)
	if err != nil {
		return report, fmt.Errorf("select due transactions: %w", err)
	}
	report.Selected = len(due)

	if len(due) == 0 {
		report.CompletedAt = time.Now()
		return report, nil
	}

	e.log.Info("dunning pass started", "as_of", asOf, "selected", len(due))

	for _, txn := range due {
		if err := e.processOne(ctx, txn, asOf, &report); err != nil {
			// Per-transaction fault isolation: log and keep going.
			report.Faulted++
			e.log.Error("dunning: transaction pass faulted",
				"transaction_id", txn.ID,
				"contract_id", txn.ContractID,
				"err", err,
			)
		}
	}

	report.CompletedAt = time.Now()
	e.log.Info("dunning pass finished",
		"selected", report.Selected,
		"settled", report.Settled,
		"retried", report.Retried,
		"exhausted", report.Exhausted,
		"faulted", report.Faulted,
	)
	return report, nil
}

// processOne runs a single transaction through the settlement state machine
// and persists the outcome. Only repo errors are returned; settlement
// failures are absorbed into the transaction state.
func (e *dunningEngine) processOne(ctx context.Context, txn Transaction, asOf time.Time, report *DunningReport) error {
	contract, err := e.contracts.Get(ctx, txn.ContractID)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}

	if e.settle(ctx, contract, txn) == nil {
		return e.onSuccess(ctx, txn, contract, asOf, report)
	}
	return e.onFailure(ctx, txn, contract, asOf, report)
}

// settle attempts to charge the installment. A missing or invalidated payment
// method fails without touching the processor; processor errors and timeouts
// are indistinguishable from declines.
func (e *dunningEngine) settle(ctx context.Context, contract Contract, txn Transaction) error {
	if contract.PaymentMethodID == "" {
		e.log.Warn("dunning: contract has no payment method", "contract_id", contract.ID)
		return ErrPaymentDeclined
	}

	method, err := e.methods.Get(ctx, contract.PaymentMethodID)
	if err != nil {
		e.log.Warn("dunning: payment method lookup failed",
			"contract_id", contract.ID,
			"payment_method_id", contract.PaymentMethodID,
			"err", err,
		)
		return ErrPaymentDeclined
	}
	if !method.Valid {
		return ErrPaymentDeclined
	}

	chargeCtx, cancel := context.WithTimeout(ctx, chargeTimeout)
	defer cancel()

	if err := e.processor.Charge(chargeCtx, method, txn.Amount); err != nil {
		e.log.Warn("dunning: charge failed",
			"transaction_id", txn.ID,
			"amount", txn.Amount.StringFixed(2),
			"err", err,
		)
		return ErrPaymentDeclined
	}
	return nil
}

func (e *dunningEngine) onSuccess(ctx context.Context, txn Transaction, contract Contract, asOf time.Time, report *DunningReport) error {
	txn.Status = TransactionStatusSuccess
	// Seed the next cycle's due date one billing period out from now; the
	// recurring-billing process reads it, not this engine.
	txn.NextPaymentDate = contract.Frequency.Advance(asOf, 1)
	txn.NextRetryPaymentDate = nil
	txn.UpdatedAt = asOf

	if err := e.transactions.Update(ctx, txn); err != nil {
		return fmt.Errorf("persist settled transaction: %w", err)
	}

	report.Settled++
	e.log.Info("dunning: installment settled",
		"transaction_id", txn.ID,
		"contract_id", contract.ID,
		"amount", txn.Amount.StringFixed(2),
	)
	return nil
}

func (e *dunningEngine) onFailure(ctx context.Context, txn Transaction, contract Contract, asOf time.Time, report *DunningReport) error {
	txn.RetryCount++
	txn.UpdatedAt = asOf

	if txn.RetryCount >= MaxRetryCount {
		// Terminal failure: the transaction stays failed and the owning
		// contract is deactivated, once.
		txn.Status = TransactionStatusFailed
		txn.NextRetryPaymentDate = nil

		if err := e.transactions.Update(ctx, txn); err != nil {
			return fmt.Errorf("persist exhausted transaction: %w", err)
		}

		report.Exhausted++
		if contract.Status != ContractStatusInactive {
			if err := e.contracts.UpdateStatus(ctx, contract.ID, ContractStatusInactive, asOf); err != nil {
				return fmt.Errorf("deactivate contract %s: %w", contract.ID, err)
			}
			e.log.Warn("dunning: retries exhausted, contract deactivated",
				"transaction_id", txn.ID,
				"contract_id", contract.ID,
				"retry_count", txn.RetryCount,
			)
		}
		return nil
	}

	retryAt := asOf.AddDate(0, 0, RetryIntervalDays)
	txn.Status = TransactionStatusInRetry
	txn.NextRetryPaymentDate = &retryAt

	if err := e.transactions.Update(ctx, txn); err != nil {
		return fmt.Errorf("persist retrying transaction: %w", err)
	}

	report.Retried++
	e.log.Info("dunning: installment scheduled for retry",
		"transaction_id", txn.ID,
		"contract_id", contract.ID,
		"retry_count", txn.RetryCount,
		"next_retry", retryAt,
	)
	return nil
}
