package worker

// sweep_cron.go
// Background goroutine that periodically scans for components below their
// resolved stock threshold and enqueues replenishment jobs for them. Covers
// the components that drifted below threshold outside of build commits
// (manual edits, reconciliation of lagging duplicates).

import (
	"context"
	"time"

	"stocktrace/internal/repository"

	"github.com/rs/zerolog/log"
)

// SweepConfig holds the dependencies of the threshold sweep.
type SweepConfig struct {
	Components repository.ComponentRepository
	Dispatcher *Dispatcher
	Interval   time.Duration
}

// StartSweepCron launches a goroutine ticking every cfg.Interval. It
// respects the context for graceful shutdown.
func StartSweepCron(ctx context.Context, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("sweep_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sweep_cron: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, cfg)
			}
		}
	}()
}

func sweep(ctx context.Context, cfg SweepConfig) {
	below, err := cfg.Components.ListBelowThreshold(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep_cron: threshold query failed")
		return
	}
	if len(below) == 0 {
		return
	}

	log.Info().Int("count", len(below)).Msg("sweep_cron: components below threshold")

	for i := range below {
		c := &below[i]
		threshold := c.StockThreshold
		if threshold == nil && c.Master != nil {
			threshold = c.Master.StockThreshold
		}
		if threshold == nil {
			continue
		}
		payload := ReplenishmentPayload{
			ComponentID: c.ID.String(),
			OnHand:      c.QuantityInStock.String(),
			Threshold:   threshold.String(),
		}
		if err := cfg.Dispatcher.EnqueueReplenishment(ctx, payload); err != nil {
			log.Error().Err(err).Str("component", c.ID.String()).
				Msg("sweep_cron: enqueue failed")
		}
	}
}
