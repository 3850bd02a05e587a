package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
)

// DunningWorker drives periodic dunning passes over due transactions.
type DunningWorker struct {
	BaseWorker
	engine core.DunningEngine
}

// NewDunningWorker creates a new dunning worker.
func NewDunningWorker(engine core.DunningEngine, interval time.Duration, log *slog.Logger) *DunningWorker {
	return &DunningWorker{
		BaseWorker: NewBaseWorker("dunning", interval, log),
		engine:     engine,
	}
}

// Start begins the worker polling loop.
func (w *DunningWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.runPass)
}

func (w *DunningWorker) runPass(ctx context.Context) error {
	report, err := w.engine.Process(ctx, time.Now().UTC())
	if err != nil {
		// Another pass is still running, likely triggered manually; the next
		// tick will pick up whatever it left behind.
		if errors.Is(err, core.ErrDunningInProgress) {
			w.log.Info("dunning pass already running, skipping tick")
			return nil
		}
		return err
	}

	if report.Selected == 0 {
		return nil
	}

	w.log.Info("dunning pass complete",
		"selected", report.Selected,
		"settled", report.Settled,
		"retried", report.Retried,
		"exhausted", report.Exhausted,
		"faulted", report.Faulted,
	)
	return nil
}
