package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages ledger transaction persistence with pagination support.
// The log is append-only: there is no update or delete operation.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByWalletID(ctx context.Context, walletID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing ledger transaction, looked up
// either by ID or by reference
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
	Reference     string
}

func (e ErrTransactionNotFound) Error() string {
	if e.Reference != "" {
		return "ledger transaction not found: " + e.Reference
	}
	return "ledger transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID != uuid.Nil && t.TransactionID != e.TransactionID {
		return false
	}
	if t.Reference != "" && t.Reference != e.Reference {
		return false
	}
	return true
}

// ErrDuplicateReference indicates reference uniqueness violation.
// Every logical event posts under exactly one reference, so hitting this
// means the same event was posted twice.
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "duplicate ledger reference: " + e.Reference
}

// Is implements the errors.Is interface for ErrDuplicateReference
func (e ErrDuplicateReference) Is(target error) bool {
	t, ok := target.(ErrDuplicateReference)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
