package worker

import (
	"context"
	"log/slog"
	"time"
)

// Replayer republishes paid orders that were never fulfilled.
type Replayer interface {
	Replay(ctx context.Context, grace time.Duration, limit int) (int, error)
}

// RunReplayLoop calls r once immediately and then every interval until ctx is
// done. Failures are logged and retried on the next tick.
func RunReplayLoop(ctx context.Context, r Replayer, interval, grace time.Duration, batch int, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Replay(ctx, grace, batch); err != nil && ctx.Err() == nil {
			log.Error("replay unfulfilled orders", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
