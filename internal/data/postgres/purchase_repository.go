package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// PurchaseRepository implements the purchase.Repository interface for PostgreSQL
type PurchaseRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPurchaseRepository creates a new PostgreSQL VAS purchase repository
func NewPurchaseRepository(logger *slog.Logger, db *persistence.PostgresDB) purchase.Repository {
	return &PurchaseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the purchase row commits
// atomically with its wallet debit and idempotency completion.
func (r *PurchaseRepository) WithTx(tx pgx.Tx) purchase.Repository {
	return &PurchaseRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a provider-accepted purchase. The idempotency key is unique
// on this table as a second line of defense behind the idempotency store.
func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.VASPurchase) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase metadata: %w", err)
	}

	query := `
		INSERT INTO vas_purchases (id, wallet_id, category, amount, recipient, status, delivery_state, provider_reference, idempotency_key, metadata, last_requery_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.querier.Exec(ctx, query,
		p.ID,
		p.WalletID,
		string(p.Category),
		p.Amount,
		p.Recipient,
		string(p.Status),
		string(p.DeliveryState),
		p.ProviderReference,
		p.IdempotencyKey,
		metadata,
		p.LastRequeryAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return purchase.ErrDuplicatePurchase{IdempotencyKey: p.IdempotencyKey}
		}
		r.logger.Error("Failed to create purchase", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// GetByID retrieves a purchase by its ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*purchase.VASPurchase, error) {
	query := `
		SELECT id, wallet_id, category, amount, recipient, status, delivery_state, provider_reference, idempotency_key, metadata, last_requery_at, created_at, updated_at
		FROM vas_purchases
		WHERE id = $1
	`

	p, err := r.scanPurchase(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, purchase.ErrPurchaseNotFound{PurchaseID: id}
		}
		r.logger.Error("Failed to get purchase", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return p, nil
}

// GetByIdempotencyKey retrieves the purchase created under an idempotency key.
// Returns nil, nil when no purchase was recorded for the key.
func (r *PurchaseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*purchase.VASPurchase, error) {
	query := `
		SELECT id, wallet_id, category, amount, recipient, status, delivery_state, provider_reference, idempotency_key, metadata, last_requery_at, created_at, updated_at
		FROM vas_purchases
		WHERE idempotency_key = $1
	`

	p, err := r.scanPurchase(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get purchase by idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get purchase by idempotency key: %w", err)
	}

	return p, nil
}

// UpdateDeliveryState records a requery outcome against the purchase
func (r *PurchaseRepository) UpdateDeliveryState(ctx context.Context, id uuid.UUID, state shared.DeliveryState, requeriedAt time.Time) error {
	query := `
		UPDATE vas_purchases
		SET delivery_state = $2, last_requery_at = $3, updated_at = $3
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id, string(state), requeriedAt)
	if err != nil {
		r.logger.Error("Failed to update delivery state", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update delivery state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return purchase.ErrPurchaseNotFound{PurchaseID: id}
	}

	return nil
}

// ListPendingDelivery returns purchases still awaiting provider-side delivery.
// Rows requeried after cutoff are skipped so the worker does not hammer the
// provider about the same purchase on every poll.
func (r *PurchaseRepository) ListPendingDelivery(ctx context.Context, cutoff time.Time, limit int) ([]*purchase.VASPurchase, error) {
	query := `
		SELECT id, wallet_id, category, amount, recipient, status, delivery_state, provider_reference, idempotency_key, metadata, last_requery_at, created_at, updated_at
		FROM vas_purchases
		WHERE delivery_state = $1 AND COALESCE(last_requery_at, created_at) < $2
		ORDER BY COALESCE(last_requery_at, created_at) ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, string(shared.DeliveryStatePending), cutoff, limit)
	if err != nil {
		r.logger.Error("Failed to list pending deliveries", "error", err)
		return nil, fmt.Errorf("failed to list pending deliveries: %w", err)
	}
	defer rows.Close()

	var purchases []*purchase.VASPurchase
	for rows.Next() {
		p, err := r.scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return purchases, nil
}

func (r *PurchaseRepository) scanPurchase(row pgx.Row) (*purchase.VASPurchase, error) {
	var p purchase.VASPurchase
	var category, status, deliveryState string
	var metadata []byte
	err := row.Scan(
		&p.ID,
		&p.WalletID,
		&category,
		&p.Amount,
		&p.Recipient,
		&status,
		&deliveryState,
		&p.ProviderReference,
		&p.IdempotencyKey,
		&metadata,
		&p.LastRequeryAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = shared.Category(category)
	p.Status = shared.PurchaseStatus(status)
	p.DeliveryState = shared.DeliveryState(deliveryState)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal purchase metadata: %w", err)
		}
	}
	return &p, nil
}
