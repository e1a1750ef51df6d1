package fares

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/posting"
)

// LedgerWriter posts one balance movement inside the caller's transaction
type LedgerWriter interface {
	Apply(ctx context.Context, tx pgx.Tx, in posting.ApplyInput) (*ledger.Transaction, error)
}

// AttemptLimiter throttles PIN verification attempts per wallet
type AttemptLimiter interface {
	Allow(ctx context.Context, walletID uuid.UUID) error
	Reset(ctx context.Context, walletID uuid.UUID)
}
