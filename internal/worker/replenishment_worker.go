package worker

// replenishment_worker.go
// Processes low-stock jobs from QueueReplenishment: resolves the component,
// re-checks the threshold (stock may have recovered since enqueue) and mails
// the configured recipient. A redis key throttles repeat mails per component.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stocktrace/internal/infra"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// alertThrottle suppresses repeat alerts for the same component.
const alertThrottle = 24 * time.Hour

// ReplenishmentPayload is the job envelope sent to QueueReplenishment.
type ReplenishmentPayload struct {
	ComponentID string `json:"component_id"`
	OnHand      string `json:"on_hand"`
	Threshold   string `json:"threshold"`
}

// ReplenishmentWorker mails low-stock alerts.
type ReplenishmentWorker struct {
	components repository.ComponentRepository
	mailer     *infra.Mailer
	rdb        *redis.Client
	recipient  string
}

func NewReplenishmentWorker(components repository.ComponentRepository, mailer *infra.Mailer, rdb *redis.Client, recipient string) *ReplenishmentWorker {
	return &ReplenishmentWorker{components: components, mailer: mailer, rdb: rdb, recipient: recipient}
}

// Process handles one replenishment job. Returning an error re-enqueues the
// job (and eventually lands it in the DLQ).
func (w *ReplenishmentWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReplenishmentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("replenishment_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	if w.recipient == "" {
		log.Warn().Msg("replenishment_worker: no alert recipient configured — skipping")
		return nil
	}

	id, err := uuid.Parse(payload.ComponentID)
	if err != nil {
		log.Error().Str("component_id", payload.ComponentID).Msg("replenishment_worker: bad component id")
		return nil
	}
	c, err := w.components.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("replenishment_worker: component lookup: %w", err)
	}

	// Throttle: one mail per component per day.
	throttleKey := "alert:sent:" + payload.ComponentID
	set, err := w.rdb.SetNX(ctx, throttleKey, time.Now().UTC().Format(time.RFC3339), alertThrottle).Result()
	if err == nil && !set {
		log.Debug().Str("component", payload.ComponentID).Msg("replenishment_worker: alert throttled")
		return nil
	}

	subject := fmt.Sprintf("Low stock: %s", c.DisplayName())
	body := fmt.Sprintf(
		"Component %s is below its stock threshold.\n\nOn hand:   %s\nThreshold: %s\n\nGenerated at %s.",
		c.DisplayName(), payload.OnHand, payload.Threshold,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err := w.mailer.SendAlert(w.recipient, subject, body, ""); err != nil {
		// Drop the throttle key so the retry can mail.
		w.rdb.Del(ctx, throttleKey)
		return fmt.Errorf("replenishment_worker: send mail: %w", err)
	}

	log.Info().Str("component", payload.ComponentID).Str("to", w.recipient).
		Msg("replenishment_worker: alert sent")
	return nil
}
