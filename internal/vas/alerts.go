package vas

import (
	"context"
	"log/slog"
	"time"

	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
)

const alertWriteTimeout = 5 * time.Second

// AlertRecorder fans a reconciliation alert out to the durable archive in
// MongoDB and the operations topic in Kafka. An alert is often the only
// remaining trace of money that moved externally, so Raise runs on a
// detached context and logs failures instead of propagating them: the
// request that triggered the alert must still receive its error response.
type AlertRecorder struct {
	logger    *slog.Logger
	archive   reconciliation.AlertRepository
	publisher producers.AlertPublisher
}

// NewAlertRecorder creates an alert recorder
func NewAlertRecorder(
	logger *slog.Logger,
	archive reconciliation.AlertRepository,
	publisher producers.AlertPublisher,
) *AlertRecorder {
	return &AlertRecorder{
		logger:    logger,
		archive:   archive,
		publisher: publisher,
	}
}

// Raise archives and announces the alert
func (r *AlertRecorder) Raise(ctx context.Context, alert *reconciliation.Alert) {
	alertsTotal.WithLabelValues(string(alert.Reason)).Inc()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertWriteTimeout)
	defer cancel()

	if err := r.archive.Insert(dctx, alert); err != nil {
		r.logger.Error("Failed to archive reconciliation alert",
			"alert_id", alert.ID,
			"reason", alert.Reason,
			"idempotency_key", alert.IdempotencyKey,
			"error", err)
	}

	if err := r.publisher.PublishAlert(dctx, alert); err != nil {
		r.logger.Error("Failed to publish reconciliation alert",
			"alert_id", alert.ID,
			"reason", alert.Reason,
			"idempotency_key", alert.IdempotencyKey,
			"error", err)
	}
}
