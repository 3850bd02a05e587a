package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// ExpirationWorker sweeps active contracts whose coverage period has ended.
type ExpirationWorker struct {
	BaseWorker
	contracts core.ContractRepo
}

// NewExpirationWorker creates a new expiration worker.
func NewExpirationWorker(contracts core.ContractRepo, interval time.Duration, log *slog.Logger) *ExpirationWorker {
	return &ExpirationWorker{
		BaseWorker: NewBaseWorker("expiration", interval, log),
		contracts:  contracts,
	}
}

// Start begins the worker polling loop.
func (w *ExpirationWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.sweep)
}

func (w *ExpirationWorker) sweep(ctx context.Context) error {
	expired, err := w.contracts.ExpireContracts(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if expired > 0 {
		w.log.Info("contracts expired", "count", expired)
	}
	return nil
}
