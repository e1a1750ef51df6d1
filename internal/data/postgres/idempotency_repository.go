package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// IdempotencyRepository implements the idempotency.Repository interface for
// PostgreSQL. Reserve relies on INSERT ... ON CONFLICT DO NOTHING so that any
// number of concurrent identical requests resolve to exactly one fresh
// reservation; the primary key on the key column is the arbiter.
type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIdempotencyRepository creates a new PostgreSQL idempotency repository
func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction. Complete is the only call
// expected inside one: it must commit atomically with the ledger write it
// caches the response for.
func (r *IdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return &IdempotencyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Reserve claims the key via an atomic insert-if-absent, then classifies any
// existing record. Stale PENDING records (abandoned by a crashed caller) and
// FAILED records are taken over with a guarded update; losing that race is
// reported as a duplicate in flight.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, staleBefore time.Time) (*idempotency.Reservation, error) {
	now := time.Now().UTC()

	insert := `
		INSERT INTO idempotency_keys (key, request_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, insert, key, requestHash, string(shared.IdempotencyStatusPending), now, now)
	if err != nil {
		r.logger.Error("Failed to reserve idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	if result.RowsAffected() == 1 {
		return &idempotency.Reservation{
			Record: &idempotency.Record{
				Key:         key,
				RequestHash: requestHash,
				Status:      shared.IdempotencyStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			Fresh: true,
		}, nil
	}

	// The key already exists; classify the record we lost to.
	record, err := r.Get(ctx, key)
	if err != nil {
		// The record was visible to the insert but not to the select. Treat
		// it as a concurrent request rather than guessing at its state.
		if errors.Is(err, idempotency.ErrRecordNotFound{}) {
			return nil, idempotency.ErrDuplicateInFlight{Key: key}
		}
		return nil, err
	}

	switch record.Status {
	case shared.IdempotencyStatusCompleted:
		if record.RequestHash != requestHash {
			return nil, idempotency.ErrKeyReuseMismatch{Key: key}
		}
		return &idempotency.Reservation{Record: record, Fresh: false}, nil

	case shared.IdempotencyStatusPending:
		if !record.UpdatedAt.Before(staleBefore) {
			return nil, idempotency.ErrDuplicateInFlight{Key: key}
		}
		return r.takeOver(ctx, record, requestHash, staleBefore, now)

	case shared.IdempotencyStatusFailed:
		return r.reArm(ctx, record, requestHash, now)

	default:
		return nil, fmt.Errorf("idempotency record %s has unknown status %q", key, record.Status)
	}
}

// takeOver claims a PENDING record that has not been touched since staleBefore.
// The guard repeats the staleness check so only one of any number of competing
// callers wins.
func (r *IdempotencyRepository) takeOver(ctx context.Context, record *idempotency.Record, requestHash string, staleBefore, now time.Time) (*idempotency.Reservation, error) {
	query := `
		UPDATE idempotency_keys
		SET request_hash = $2, updated_at = $3
		WHERE key = $1 AND status = $4 AND updated_at < $5
	`

	result, err := r.querier.Exec(ctx, query, record.Key, requestHash, now, string(shared.IdempotencyStatusPending), staleBefore)
	if err != nil {
		r.logger.Error("Failed to take over stale idempotency key", "key", record.Key, "error", err)
		return nil, fmt.Errorf("failed to take over stale idempotency key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, idempotency.ErrDuplicateInFlight{Key: record.Key}
	}

	taken := *record
	taken.RequestHash = requestHash
	taken.UpdatedAt = now
	return &idempotency.Reservation{Record: &taken, Fresh: true}, nil
}

// reArm returns a FAILED record to PENDING so the caller can retry the
// operation under the same key.
func (r *IdempotencyRepository) reArm(ctx context.Context, record *idempotency.Record, requestHash string, now time.Time) (*idempotency.Reservation, error) {
	query := `
		UPDATE idempotency_keys
		SET status = $2, request_hash = $3, cached_response = NULL, updated_at = $4
		WHERE key = $1 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, record.Key, string(shared.IdempotencyStatusPending), requestHash, now, string(shared.IdempotencyStatusFailed))
	if err != nil {
		r.logger.Error("Failed to re-arm failed idempotency key", "key", record.Key, "error", err)
		return nil, fmt.Errorf("failed to re-arm failed idempotency key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, idempotency.ErrDuplicateInFlight{Key: record.Key}
	}

	armed := *record
	armed.RequestHash = requestHash
	armed.Status = shared.IdempotencyStatusPending
	armed.CachedResponse = nil
	armed.UpdatedAt = now
	return &idempotency.Reservation{Record: &armed, Fresh: true}, nil
}

// Complete transitions a PENDING record to COMPLETED and stores the cached
// response. The status guard means a record that was failed or taken over in
// the meantime is not silently overwritten.
func (r *IdempotencyRepository) Complete(ctx context.Context, key string, response []byte) error {
	query := `
		UPDATE idempotency_keys
		SET status = $2, cached_response = $3, updated_at = $4
		WHERE key = $1 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, key, string(shared.IdempotencyStatusCompleted), response, time.Now().UTC(), string(shared.IdempotencyStatusPending))
	if err != nil {
		r.logger.Error("Failed to complete idempotency key", "key", key, "error", err)
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return idempotency.ErrRecordNotPending{Key: key}
	}

	return nil
}

// Fail transitions a PENDING record to FAILED. Zero affected rows is not an
// error: the record may already be COMPLETED, and a completed operation is
// never reverted.
func (r *IdempotencyRepository) Fail(ctx context.Context, key string) error {
	query := `
		UPDATE idempotency_keys
		SET status = $2, updated_at = $3
		WHERE key = $1 AND status = $4
	`

	_, err := r.querier.Exec(ctx, query, key, string(shared.IdempotencyStatusFailed), time.Now().UTC(), string(shared.IdempotencyStatusPending))
	if err != nil {
		r.logger.Error("Failed to mark idempotency key failed", "key", key, "error", err)
		return fmt.Errorf("failed to mark idempotency key failed: %w", err)
	}

	return nil
}

// Get retrieves an idempotency record by key
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	query := `
		SELECT key, request_hash, status, cached_response, created_at, updated_at
		FROM idempotency_keys
		WHERE key = $1
	`

	var record idempotency.Record
	var status string
	err := r.querier.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.RequestHash,
		&status,
		&record.CachedResponse,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrRecordNotFound{Key: key}
		}
		r.logger.Error("Failed to get idempotency record", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	record.Status = shared.IdempotencyStatus(status)

	return &record, nil
}
