package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Worker is a background job that polls for work until its context ends.
type Worker interface {
	Start(ctx context.Context)
	Name() string
}

// BaseWorker carries the shared polling loop. Concrete workers embed it and
// pass their work function to Poll.
type BaseWorker struct {
	name     string
	interval time.Duration
	log      *slog.Logger
}

func NewBaseWorker(name string, interval time.Duration, log *slog.Logger) BaseWorker {
	return BaseWorker{
		name:     name,
		interval: interval,
		log:      log.With("worker", name),
	}
}

// Name returns the worker name.
func (w *BaseWorker) Name() string {
	return w.name
}

// Poll runs work once immediately and then on every tick until ctx is
// cancelled. Errors are logged, not propagated; a failed pass does not stop
// the loop.
func (w *BaseWorker) Poll(ctx context.Context, work func(context.Context) error) {
	w.log.Info("worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx, work)
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping")
			return
		case <-ticker.C:
		}
	}
}

func (w *BaseWorker) runOnce(ctx context.Context, work func(context.Context) error) {
	started := time.Now()
	if err := work(ctx); err != nil {
		w.log.Error("worker error", "err", err, "elapsed", time.Since(started))
	}
}
