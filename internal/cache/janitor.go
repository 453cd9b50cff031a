package cache

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// RunJanitor sweeps every target each interval until ctx is done. Targets are
// named for logging only.
func RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger, targets map[string]Sweeper) {
	if interval <= 0 || len(targets) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, target := range targets {
				if n := target.Sweep(); n > 0 {
					logger.Debug("expired entries removed", "target", name, "count", n)
				}
			}
		}
	}
}
