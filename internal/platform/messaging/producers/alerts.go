package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/segmentio/kafka-go"
)

// AlertProducer announces reconciliation alerts on a dedicated topic. Unlike
// domain events, alerts are written synchronously with RequireAll: an alert
// is the last trace of money that moved externally without a ledger record,
// so the write must be acknowledged before the request finishes.
type AlertProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewAlertProducer creates the alerts producer and ensures the topic exists
func NewAlertProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AlertProducer, error) {
	if cfg.AlertsTopic == "" {
		return nil, fmt.Errorf("kafka alerts topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for alert producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.AlertsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure alerts topic %s exists: %w", cfg.AlertsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AlertsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write alerts synchronously", "topic", cfg.AlertsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote alerts synchronously", "topic", cfg.AlertsTopic, "count", len(messages))
			}
		},
	}

	return &AlertProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.AlertsTopic,
	}, nil
}

// PublishAlert writes the alert keyed by its idempotency key, with the
// reason surfaced as a header for broker-side routing.
func (p *AlertProducer) PublishAlert(ctx context.Context, alert *reconciliation.Alert) error {
	jsonValue, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert value: %w", err)
	}

	key := alert.IdempotencyKey
	if key == "" {
		key = alert.ID.String()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: "alert-reason", Value: []byte(alert.Reason)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish alert",
			"topic", p.topic,
			"key", key,
			"reason", string(alert.Reason),
			"error", err,
		)
		return fmt.Errorf("failed to publish alert to %s: %w", p.topic, err)
	}

	p.logger.Info("Published reconciliation alert",
		"topic", p.topic,
		"key", key,
		"reason", string(alert.Reason),
	)
	return nil
}

func (p *AlertProducer) Close() error {
	p.logger.Info("Closing alert Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close alert kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
