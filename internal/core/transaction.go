package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
	TransactionStatusInRetry TransactionStatus = "in_retry"
)

// CanTransitionTo checks if a status transition is valid. Success is terminal;
// failed transactions may recover via in_retry until retries are exhausted.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	transitions := map[TransactionStatus][]TransactionStatus{
		TransactionStatusPending: {TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusInRetry},
		TransactionStatusFailed:  {TransactionStatusInRetry, TransactionStatusSuccess},
		TransactionStatusInRetry: {TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusInRetry},
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transaction is one billing installment of a contract. Transactions are
// bulk-created by the schedule generator and mutated only by the dunning
// engine. Version backs optimistic concurrency on updates so overlapping
// dunning runs can never double-count a retry.
type Transaction struct {
	ID                   string            `json:"id"`
	ContractID           string            `json:"contract_id"`
	Amount               decimal.Decimal   `json:"amount"`
	Status               TransactionStatus `json:"status"`
	RetryCount           int               `json:"retry_count"`
	NextPaymentDate      time.Time         `json:"next_payment_date"`
	NextRetryPaymentDate *time.Time        `json:"next_retry_payment_date,omitempty"`
	Version              int64             `json:"-"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

type TransactionRepo interface {
	// BulkCreate persists a whole schedule all-or-nothing.
	BulkCreate(ctx context.Context, txns []Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	// Update persists a single transaction iff the stored version still
	// matches txn.Version, then bumps it. Returns ErrTransactionConflict on a
	// lost race.
	Update(ctx context.Context, txn Transaction) error
	ListByContract(ctx context.Context, contractID string) ([]Transaction, error)
	DeleteByContract(ctx context.Context, contractID string) (int64, error)
	// FindDue returns transactions eligible for a dunning pass as of the given
	// instant: pending ones, and failed/in_retry ones with retries remaining
	// (retryCount < maxRetry) whose retry date, when set, is due. Settled and
	// terminally failed transactions are never selected.
	FindDue(ctx context.Context, asOf time.Time, maxRetry int, limit int) ([]Transaction, error)
}

var (
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", ErrNotFound)
	ErrTransactionConflict = fmt.Errorf("%w: transaction was modified concurrently", ErrConflict)
)
