package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Wallet holds the spendable balance for exactly one account.
// The balance is only ever mutated through the posting writer inside a
// database transaction; Credit/Debit below mutate the in-memory copy that
// was read under lock.
type Wallet struct {
	ID        uuid.UUID   `json:"id"`
	AccountID uuid.UUID   `json:"account_id"`
	Role      shared.Role `json:"role"`
	Balance   int64       `json:"balance"` // Stored in minor units (kobo)
	PINHash   string      `json:"-"`       // bcrypt hash, never serialized
	Version   int64       `json:"version"` // For optimistic locking
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewWallet creates a wallet for an account with an opening balance
func NewWallet(accountID uuid.UUID, role shared.Role, openingBalance int64, pinHash string) (*Wallet, error) {
	if openingBalance < 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := shared.ParseRole(string(role)); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Wallet{
		ID:        uuid.New(),
		AccountID: accountID,
		Role:      role,
		Balance:   openingBalance,
		PINHash:   pinHash,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credit adds the specified amount to the wallet balance
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w.Balance += amount
	w.UpdatedAt = time.Now()
	w.Version++
	return nil
}

// Debit subtracts the specified amount from the wallet balance
func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if w.Balance < amount {
		return ErrInsufficientFunds
	}

	w.Balance -= amount
	w.UpdatedAt = time.Now()
	w.Version++
	return nil
}

// CanDebit checks if the wallet has sufficient funds for a debit
func (w *Wallet) CanDebit(amount int64) bool {
	return w.Balance >= amount
}
