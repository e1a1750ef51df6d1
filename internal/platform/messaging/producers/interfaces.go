package producers

import (
	"context"

	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/segmentio/kafka-go"
)

// MessagePublisher handles publishing domain events to the events topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// AlertPublisher announces reconciliation alerts that require manual action
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *reconciliation.Alert) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
