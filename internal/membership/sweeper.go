package membership

import (
	"context"
	"fmt"
	"time"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/metrics"
)

const DefaultSweepInterval = time.Hour

type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically expires lapsed memberships.
type Sweeper struct {
	Service Expirer
	Logger  *logger.Logger
	Now     func() time.Time
}

func NewSweeper(s Expirer, log *logger.Logger) *Sweeper {
	return &Sweeper{Service: s, Logger: log, Now: time.Now}
}

// Run sweeps once immediately, then every interval until ctx is cancelled.
// A non-positive interval falls back to DefaultSweepInterval.
func (w *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		w.Logger.Warn("SWEEPER", fmt.Sprintf("invalid sweep interval %s, using %s", interval, DefaultSweepInterval))
		interval = DefaultSweepInterval
	}
	w.Logger.LogProcess("SWEEPER", fmt.Sprintf("membership sweeper started (every %s)", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)
		select {
		case <-ctx.Done():
			w.Logger.LogProcess("SWEEPER", "membership sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := w.Service.ExpireDue(ctx, w.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.Logger.Error("SWEEPER", err.Error())
		}
		return 0
	}
	if n > 0 {
		metrics.MembershipsExpired.Add(float64(n))
		w.Logger.LogProcess("SWEEPER", fmt.Sprintf("expired %d memberships", n))
	}
	return n
}
