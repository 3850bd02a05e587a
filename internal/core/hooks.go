package core

import (
	"context"
	"log/slog"
)

// ClientDirectory is the external client-management collaborator. Contract
// creation provisions a client record through it on a best-effort basis.
type ClientDirectory interface {
	EnsureClient(ctx context.Context, clientID string) error
}

// runBestEffort executes an ancillary side effect whose failure must not
// abort the primary operation: the error is logged and swallowed. Financial
// mutations (contract status, transaction state, amounts) must never go
// through this path.
func runBestEffort(ctx context.Context, log *slog.Logger, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("best-effort hook panicked", "hook", name, "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		log.Warn("best-effort hook failed", "hook", name, "err", err)
	}
}
