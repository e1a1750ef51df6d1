package vas

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/movaapp/mova-backend/internal/posting"
)

// LedgerWriter posts one balance movement inside the caller's transaction
type LedgerWriter interface {
	Apply(ctx context.Context, tx pgx.Tx, in posting.ApplyInput) (*ledger.Transaction, error)
}

// AlertSink records reconciliation alerts that require manual action
type AlertSink interface {
	Raise(ctx context.Context, alert *reconciliation.Alert)
}
