package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
)

const (
	// ProviderCallCollectionName is the name of the provider call audit collection
	ProviderCallCollectionName = "provider_calls"
)

// ProviderCallRepository implements the reconciliation.ProviderCallRepository
// interface for MongoDB. Every gateway round trip is recorded here so that a
// disputed purchase can be traced to the exact submit and requery exchanges.
type ProviderCallRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewProviderCallRepository creates a new MongoDB provider call repository
func NewProviderCallRepository(logger *slog.Logger, db *mongo.Database) reconciliation.ProviderCallRepository {
	return &ProviderCallRepository{
		db:     db,
		logger: logger,
	}
}

// Insert records a gateway round trip
func (r *ProviderCallRepository) Insert(ctx context.Context, call *reconciliation.ProviderCall) error {
	collection := r.db.Collection(ProviderCallCollectionName)

	_, err := collection.InsertOne(ctx, call)
	if err != nil {
		r.logger.Error("Failed to insert provider call audit",
			"kind", call.Kind,
			"reference", call.Reference,
			"error", err)
		return fmt.Errorf("failed to insert provider call audit: %w", err)
	}

	return nil
}
