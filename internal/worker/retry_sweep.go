package worker

// retry_sweep.go
// Background goroutine that periodically drains the notification retry queue
// and re-attempts delivery. Parking failed jobs on a separate list and only
// sweeping every tick gives the SMTP relay breathing room between attempts;
// the circuit breaker keeps a downed relay from being hammered mid-batch.

import (
	"context"
	"encoding/json"
	"time"

	"tiendapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// StartRetrySweep launches a goroutine that ticks every 30s and re-processes
// up to retryBatchSize parked notification jobs. Respects ctx for shutdown.
func StartRetrySweep(ctx context.Context, rdb *redis.Client, w *NotificacionWorker, cb *infra.CircuitBreaker) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_sweep: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, rdb, w, cb)
			}
		}
	}()
}

func processRetries(ctx context.Context, rdb *redis.Client, w *NotificacionWorker, cb *infra.CircuitBreaker) {
	// If the CB is open, skip the tick entirely — don't hammer a downed relay
	if cb.State() == infra.CBOpen {
		log.Debug().Msg("retry_sweep: circuit breaker is open, skipping tick")
		return
	}

	for i := 0; i < retryBatchSize; i++ {
		raw, err := rdb.RPop(ctx, QueueNotificacionesRetry).Result()
		if err != nil {
			return // empty queue or context cancelled
		}

		// Check CB state before each job — it may have tripped mid-batch
		if cb.State() == infra.CBOpen {
			// Put the job back; next tick will pick it up
			if err := rdb.RPush(ctx, QueueNotificacionesRetry, raw).Err(); err != nil {
				log.Error().Err(err).Msg("retry_sweep: failed to requeue job")
			}
			log.Debug().Msg("retry_sweep: circuit breaker opened mid-batch, stopping")
			return
		}

		w.Process(ctx, json.RawMessage(raw))
	}
}
