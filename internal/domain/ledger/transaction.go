package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

var (
	ErrInvalidAmount   = errors.New("transaction amount must be positive")
	ErrEmptyReference  = errors.New("transaction reference cannot be empty")
	ErrBrokenInvariant = errors.New("balance_after does not equal balance_before adjusted by amount")
)

// Transaction is an immutable, append-only ledger entry. It is written in the
// same database transaction as the balance mutation it describes, so
// BalanceAfter always equals the wallet balance at commit time.
type Transaction struct {
	ID            uuid.UUID                `json:"id"`
	WalletID      uuid.UUID                `json:"wallet_id"`
	Direction     shared.Direction         `json:"direction"`
	Category      shared.Category          `json:"category"`
	Amount        int64                    `json:"amount"` // minor units
	BalanceBefore int64                    `json:"balance_before"`
	BalanceAfter  int64                    `json:"balance_after"`
	Status        shared.TransactionStatus `json:"status"`
	Reference     string                   `json:"reference"` // globally unique per logical event
	PurchaseID    *uuid.UUID               `json:"purchase_id,omitempty"`
	TripID        *uuid.UUID               `json:"trip_id,omitempty"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// NewTransaction builds a ledger transaction and checks the balance invariant
func NewTransaction(
	walletID uuid.UUID,
	direction shared.Direction,
	category shared.Category,
	amount int64,
	balanceBefore int64,
	balanceAfter int64,
	reference string,
) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reference == "" {
		return nil, ErrEmptyReference
	}

	switch direction {
	case shared.DirectionCredit:
		if balanceAfter != balanceBefore+amount {
			return nil, ErrBrokenInvariant
		}
	case shared.DirectionDebit:
		if balanceAfter != balanceBefore-amount {
			return nil, ErrBrokenInvariant
		}
	default:
		return nil, errors.New("unknown transaction direction: " + string(direction))
	}

	return &Transaction{
		ID:            uuid.New(),
		WalletID:      walletID,
		Direction:     direction,
		Category:      category,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Status:        shared.TransactionStatusCompleted,
		Reference:     reference,
		CreatedAt:     time.Now(),
	}, nil
}
