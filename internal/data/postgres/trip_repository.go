package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/movaapp/mova-backend/internal/domain/trip"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// TripRepository implements the trip.Repository interface for PostgreSQL.
// Trips are written by the ride service; this repository only reads them.
type TripRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTripRepository creates a new PostgreSQL trip repository
func NewTripRepository(logger *slog.Logger, db *persistence.PostgresDB) trip.Repository {
	return &TripRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a trip by its ID
func (r *TripRepository) GetByID(ctx context.Context, id uuid.UUID) (*trip.Trip, error) {
	query := `
		SELECT id, driver_wallet_id, operator_wallet_id, route, fare_per_passenger, vehicle_capacity, paid_passenger_count, completed, created_at
		FROM trips
		WHERE id = $1
	`

	var t trip.Trip
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.DriverWalletID,
		&t.OperatorWalletID,
		&t.Route,
		&t.FarePerPassenger,
		&t.VehicleCapacity,
		&t.PaidPassengerCount,
		&t.Completed,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trip.ErrTripNotFound{TripID: id}
		}
		r.logger.Error("Failed to get trip", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &t, nil
}
