package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// SettlementRepository implements the settlement.Repository interface for PostgreSQL
type SettlementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSettlementRepository creates a new PostgreSQL settlement repository
func NewSettlementRepository(logger *slog.Logger, db *persistence.PostgresDB) settlement.Repository {
	return &SettlementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so approval and the three
// payout credits commit as one unit.
func (r *SettlementRepository) WithTx(tx pgx.Tx) settlement.Repository {
	return &SettlementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a computed settlement. The unique constraint on trip_id is
// what guarantees at most one settlement per trip.
func (r *SettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	query := `
		INSERT INTO settlements (id, trip_id, total_amount, driver_payout, operator_commission, platform_fee, status, approved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.TripID,
		s.TotalAmount,
		s.DriverPayout,
		s.OperatorCommission,
		s.PlatformFee,
		string(s.Status),
		s.ApprovedAt,
		s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return settlement.ErrDuplicateSettlement{TripID: s.TripID}
		}
		r.logger.Error("Failed to create settlement", "trip_id", s.TripID.String(), "error", err)
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	return nil
}

// GetByTripID retrieves the settlement computed for a trip
func (r *SettlementRepository) GetByTripID(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error) {
	query := `
		SELECT id, trip_id, total_amount, driver_payout, operator_commission, platform_fee, status, approved_at, created_at
		FROM settlements
		WHERE trip_id = $1
	`

	var s settlement.Settlement
	var status string
	err := r.querier.QueryRow(ctx, query, tripID).Scan(
		&s.ID,
		&s.TripID,
		&s.TotalAmount,
		&s.DriverPayout,
		&s.OperatorCommission,
		&s.PlatformFee,
		&status,
		&s.ApprovedAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settlement.ErrSettlementNotFound{TripID: tripID}
		}
		r.logger.Error("Failed to get settlement", "trip_id", tripID.String(), "error", err)
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	s.Status = shared.SettlementStatus(status)

	return &s, nil
}

// Approve transitions the trip's settlement from PENDING to APPROVED. The
// status guard makes the transition single-shot: a second approval changes
// zero rows and reports ErrAlreadyApproved.
func (r *SettlementRepository) Approve(ctx context.Context, tripID uuid.UUID, approvedAt time.Time) error {
	query := `
		UPDATE settlements
		SET status = $2, approved_at = $3
		WHERE trip_id = $1 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, tripID, string(shared.SettlementStatusApproved), approvedAt, string(shared.SettlementStatusPending))
	if err != nil {
		r.logger.Error("Failed to approve settlement", "trip_id", tripID.String(), "error", err)
		return fmt.Errorf("failed to approve settlement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return settlement.ErrAlreadyApproved{TripID: tripID}
	}

	return nil
}
