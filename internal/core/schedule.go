package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/ids"
)

// ScheduleGenerator owns bulk creation (and regeneration) of a contract's
// transactions. No other component writes transactions in bulk.
type ScheduleGenerator interface {
	// Generate builds and persists the full installment schedule for a priced
	// contract. Persistence is all-or-nothing.
	Generate(ctx context.Context, c Contract) ([]Transaction, error)

	// Regenerate drops any existing schedule for the contract before
	// generating a fresh one. Stale schedules must never coexist with a new
	// one.
	Regenerate(ctx context.Context, c Contract) ([]Transaction, error)

	// Discard deletes a contract's schedule without replacing it (contract
	// removal cascade).
	Discard(ctx context.Context, contractID string) (int64, error)
}

type scheduleGenerator struct {
	transactions TransactionRepo
	log          *slog.Logger
	clock        func() time.Time
}

func NewScheduleGenerator(transactions TransactionRepo, log *slog.Logger) ScheduleGenerator {
	return &scheduleGenerator{
		transactions: transactions,
		log:          log,
		clock:        time.Now,
	}
}

func (g *scheduleGenerator) Generate(ctx context.Context, c Contract) ([]Transaction, error) {
	if c.TotalAmount.IsZero() {
		return nil, fmt.Errorf("%w: contract %s has no computed total amount", ErrInvalidState, c.ID)
	}

	txns := BuildSchedule(c, g.clock())

	if err := g.transactions.BulkCreate(ctx, txns); err != nil {
		return nil, fmt.Errorf("persist schedule for contract %s: %w", c.ID, err)
	}

	g.log.Info("schedule generated",
		"contract_id", c.ID,
		"installments", len(txns),
		"total", c.TotalAmount.StringFixed(2),
	)
	return txns, nil
}

func (g *scheduleGenerator) Regenerate(ctx context.Context, c Contract) ([]Transaction, error) {
	deleted, err := g.transactions.DeleteByContract(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("drop stale schedule for contract %s: %w", c.ID, err)
	}
	if deleted > 0 {
		g.log.Info("stale schedule dropped", "contract_id", c.ID, "deleted", deleted)
	}
	return g.Generate(ctx, c)
}

func (g *scheduleGenerator) Discard(ctx context.Context, contractID string) (int64, error) {
	deleted, err := g.transactions.DeleteByContract(ctx, contractID)
	if err != nil {
		return 0, fmt.Errorf("discard schedule for contract %s: %w", contractID, err)
	}
	return deleted, nil
}

// BuildSchedule computes the installment sequence for a contract without
// persisting it. Installment i (0-indexed) is due on the start date advanced
// by i billing periods; the first is due exactly on the start date. Every
// installment carries the flat rounded amount except the last, which absorbs
// the rounding remainder so the sum equals the contract total to the cent.
func BuildSchedule(c Contract, now time.Time) []Transaction {
	count := PaymentCount(c.StartDate, c.EndDate, c.Frequency)

	installment := c.TotalAmount.DivRound(decimal.NewFromInt(int64(count)), 2)

	txns := make([]Transaction, count)
	for i := 0; i < count; i++ {
		amount := installment
		if i == count-1 {
			flat := installment.Mul(decimal.NewFromInt(int64(count - 1)))
			amount = c.TotalAmount.Sub(flat)
		}
		txns[i] = Transaction{
			ID:              ids.New(),
			ContractID:      c.ID,
			Amount:          amount,
			Status:          TransactionStatusPending,
			RetryCount:      0,
			NextPaymentDate: c.Frequency.Advance(c.StartDate, i),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return txns
}

// InstallmentAmount is the flat per-installment amount for a priced contract,
// as stored on the contract record. The final installment may differ by the
// rounding remainder.
func InstallmentAmount(c Contract) decimal.Decimal {
	count := PaymentCount(c.StartDate, c.EndDate, c.Frequency)
	return c.TotalAmount.DivRound(decimal.NewFromInt(int64(count)), 2)
}
