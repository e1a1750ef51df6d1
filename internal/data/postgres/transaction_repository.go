package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// TransactionRepository implements the ledger.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL ledger transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so ledger rows commit
// atomically with the balance updates they describe.
func (r *TransactionRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a transaction to the ledger. References are unique; a
// replayed reference returns ErrDuplicateReference.
func (r *TransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (id, wallet_id, direction, category, amount, balance_before, balance_after, status, reference, purchase_id, trip_id, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.WalletID,
		string(t.Direction),
		string(t.Category),
		t.Amount,
		t.BalanceBefore,
		t.BalanceAfter,
		string(t.Status),
		t.Reference,
		t.PurchaseID,
		t.TripID,
		t.CorrelationID,
		t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.ErrDuplicateReference{Reference: t.Reference}
		}
		r.logger.Error("Failed to create transaction", "reference", t.Reference, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	query := `
		SELECT id, wallet_id, direction, category, amount, balance_before, balance_after, status, reference, purchase_id, trip_id, correlation_id, created_at
		FROM transactions
		WHERE id = $1
	`

	t, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// GetByReference retrieves a transaction by its unique reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*ledger.Transaction, error) {
	query := `
		SELECT id, wallet_id, direction, category, amount, balance_before, balance_after, status, reference, purchase_id, trip_id, correlation_id, created_at
		FROM transactions
		WHERE reference = $1
	`

	t, err := r.scanTransaction(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get transaction by reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return t, nil
}

// GetByWalletID retrieves a page of a wallet's transactions, newest first
func (r *TransactionRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*ledger.Transaction, error) {
	query := `
		SELECT id, wallet_id, direction, category, amount, balance_before, balance_after, status, reference, purchase_id, trip_id, correlation_id, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*ledger.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// CountByWalletID returns the total number of transactions for a wallet
func (r *TransactionRepository) CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE wallet_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "wallet_id", walletID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var direction, category, status string
	err := row.Scan(
		&t.ID,
		&t.WalletID,
		&direction,
		&category,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&status,
		&t.Reference,
		&t.PurchaseID,
		&t.TripID,
		&t.CorrelationID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Direction = shared.Direction(direction)
	t.Category = shared.Category(category)
	t.Status = shared.TransactionStatus(status)
	return &t, nil
}
