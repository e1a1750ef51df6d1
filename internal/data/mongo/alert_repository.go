// Package mongo provides MongoDB implementations of the reconciliation
// repositories. Alerts and provider call audits are operational documents:
// they are written on the hot path but only read by humans and ops tooling,
// so they live outside the transactional PostgreSQL store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
)

const (
	// AlertCollectionName is the name of the reconciliation alert collection
	AlertCollectionName = "reconciliation_alerts"
)

// AlertRepository implements the reconciliation.AlertRepository interface for MongoDB
type AlertRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAlertRepository creates a new MongoDB reconciliation alert repository
func NewAlertRepository(logger *slog.Logger, db *mongo.Database) reconciliation.AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// Insert archives a reconciliation alert
func (r *AlertRepository) Insert(ctx context.Context, alert *reconciliation.Alert) error {
	collection := r.db.Collection(AlertCollectionName)

	_, err := collection.InsertOne(ctx, alert)
	if err != nil {
		r.logger.Error("Failed to insert reconciliation alert",
			"id", alert.ID.String(),
			"reason", string(alert.Reason),
			"error", err)
		return fmt.Errorf("failed to insert reconciliation alert: %w", err)
	}

	return nil
}

// ListOpen retrieves unresolved alerts, oldest first, so operators work the
// backlog in the order it accumulated.
func (r *AlertRepository) ListOpen(ctx context.Context, limit int) ([]*reconciliation.Alert, error) {
	collection := r.db.Collection(AlertCollectionName)

	filter := bson.M{"open": true}
	opts := options.Find().
		SetSort(bson.M{"created_at": 1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list open reconciliation alerts", "error", err)
		return nil, fmt.Errorf("failed to list open reconciliation alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []*reconciliation.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		r.logger.Error("Failed to decode reconciliation alerts", "error", err)
		return nil, fmt.Errorf("failed to decode reconciliation alerts: %w", err)
	}

	return alerts, nil
}

// Resolve closes an alert after an operator has reconciled it.
// Returns ErrAlertNotFound if no alert exists with the given ID.
func (r *AlertRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	collection := r.db.Collection(AlertCollectionName)

	filter := bson.M{"id": id}
	update := bson.M{
		"$set": bson.M{
			"open": false,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to resolve reconciliation alert",
			"id", id.String(),
			"error", err)
		return fmt.Errorf("failed to resolve reconciliation alert: %w", err)
	}

	if result.MatchedCount == 0 {
		return reconciliation.ErrAlertNotFound{AlertID: id}
	}

	return nil
}
