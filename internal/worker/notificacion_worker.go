package worker

// notificacion_worker.go
// Processes email notification jobs from QueueNotificaciones: egreso alerts
// and cierre reports (with PDF attachment). Sends go through the SMTP circuit
// breaker; a failed job is parked on the retry queue for the sweep goroutine,
// and moved to the DLQ once MaxNotificacionRetries is exceeded. The caller of
// the original operation is never affected by any of this.

import (
	"context"
	"encoding/json"

	"tiendapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxNotificacionRetries caps the sweep re-attempts before a job is dead-lettered.
const MaxNotificacionRetries = 5

// NotificacionPayload is the job envelope sent to QueueNotificaciones.
type NotificacionPayload struct {
	ToEmail    string `json:"to_email"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	AttachPath string `json:"attach_path,omitempty"`
	Attempts   int    `json:"attempts"`
}

// NotificacionWorker delivers notification emails via SMTP.
type NotificacionWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewNotificacionWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends the notification email, routing failures to retry/DLQ.
func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("notificacion_worker: empty to_email — skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.AttachPath)
	})
	if err != nil {
		w.onFailure(ctx, payload, err)
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).
		Msg("notificacion_worker: email sent")
}

func (w *NotificacionWorker) onFailure(ctx context.Context, payload NotificacionPayload, cause error) {
	payload.Attempts++

	if payload.Attempts >= MaxNotificacionRetries {
		data, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueNotificaciones, "notificacion", data, cause.Error(), payload.Attempts)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("notificacion_worker: marshal retry payload")
		return
	}
	if err := w.rdb.LPush(ctx, QueueNotificacionesRetry, data).Err(); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: push to retry queue")
		return
	}
	log.Warn().Err(cause).
		Str("to", payload.ToEmail).
		Int("attempts", payload.Attempts).
		Msg("notificacion_worker: send failed, parked for retry")
}
