package orchestrator

import (
	"context"
	"time"

	"github.com/sandevgo/emilia/pkg/log"
)

// Reaper closes idle sessions on a fixed interval and every remaining
// session on shutdown.
type Reaper struct {
	orch     *Orchestrator
	idle     time.Duration
	interval time.Duration
}

func NewReaper(orch *Orchestrator, idle, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{orch: orch, idle: idle, interval: interval}
}

func (r *Reaper) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	if r.idle <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.orch.CloseIdle(ctx, r.idle); n > 0 {
				logger.Info().Int("closed", n).Msg("reaped idle sessions")
			}
		}
	}
}

func (r *Reaper) Shutdown(ctx context.Context) error {
	return r.orch.CloseAll(ctx)
}
