// Package posting implements the single write path for wallet balances.
// Every balance change in the system, whether a purchase debit, a settlement
// credit or a transfer leg, goes through Writer.Apply so that the wallet row
// and its ledger entry are always written in the same database transaction.
package posting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
)

// ApplyInput describes one balance movement against one wallet.
type ApplyInput struct {
	WalletID      uuid.UUID
	Direction     shared.Direction
	Category      shared.Category
	Amount        int64 // minor units, must be positive
	Reference     string
	PurchaseID    *uuid.UUID
	TripID        *uuid.UUID
	CorrelationID string
}

// Writer posts balance movements. It locks the wallet row, mutates the
// balance and appends the ledger entry, all against the caller's transaction.
type Writer struct {
	logger       *slog.Logger
	txRunner     persistence.TxRunner
	wallets      wallet.Repository
	transactions ledger.Repository
}

// NewWriter creates a ledger writer backed by the given repositories.
func NewWriter(
	logger *slog.Logger,
	txRunner persistence.TxRunner,
	wallets wallet.Repository,
	transactions ledger.Repository,
) *Writer {
	return &Writer{
		logger:       logger,
		txRunner:     txRunner,
		wallets:      wallets,
		transactions: transactions,
	}
}

// Apply posts a single movement inside the caller's transaction. The wallet
// row is locked first, so concurrent movements against the same wallet
// serialize at the database. The balance invariant is re-checked by the
// transaction constructor against the freshly read balance, which makes a
// stale in-memory balance impossible to commit.
//
// Domain errors such as wallet.ErrInsufficientFunds and
// ledger.ErrDuplicateReference pass through unwrapped so callers can match
// on them.
func (w *Writer) Apply(ctx context.Context, tx pgx.Tx, in ApplyInput) (*ledger.Transaction, error) {
	wallets := w.wallets.WithTx(tx)
	transactions := w.transactions.WithTx(tx)

	wal, err := wallets.LockForUpdate(ctx, in.WalletID)
	if err != nil {
		return nil, err
	}

	balanceBefore := wal.Balance

	switch in.Direction {
	case shared.DirectionDebit:
		if err := wal.Debit(in.Amount); err != nil {
			return nil, err
		}
	case shared.DirectionCredit:
		if err := wal.Credit(in.Amount); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown posting direction: %s", in.Direction)
	}

	if err := wallets.Update(ctx, wal); err != nil {
		return nil, err
	}

	txn, err := ledger.NewTransaction(
		wal.ID,
		in.Direction,
		in.Category,
		in.Amount,
		balanceBefore,
		wal.Balance,
		in.Reference,
	)
	if err != nil {
		return nil, err
	}
	txn.PurchaseID = in.PurchaseID
	txn.TripID = in.TripID
	txn.CorrelationID = in.CorrelationID

	if err := transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	w.logger.Info("Posted ledger movement",
		"wallet_id", wal.ID,
		"direction", in.Direction,
		"amount", in.Amount,
		"balance_after", wal.Balance,
		"reference", in.Reference)

	return txn, nil
}

// ApplyAtomic posts a single movement in its own transaction. Callers that
// need several movements, or a movement plus other writes, should open the
// transaction themselves and call Apply.
func (w *Writer) ApplyAtomic(ctx context.Context, in ApplyInput) (*ledger.Transaction, error) {
	var txn *ledger.Transaction
	err := w.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var applyErr error
		txn, applyErr = w.Apply(ctx, tx, in)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
