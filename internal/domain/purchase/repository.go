package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// Repository defines VAS purchase persistence operations
type Repository interface {
	Create(ctx context.Context, p *VASPurchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*VASPurchase, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*VASPurchase, error)

	// UpdateDeliveryState records a requery outcome
	UpdateDeliveryState(ctx context.Context, id uuid.UUID, state shared.DeliveryState, requeriedAt time.Time) error

	// ListPendingDelivery returns purchases still awaiting provider-side
	// delivery, oldest requery first, skipping rows requeried after cutoff
	ListPendingDelivery(ctx context.Context, cutoff time.Time, limit int) ([]*VASPurchase, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrPurchaseNotFound indicates missing purchase
type ErrPurchaseNotFound struct {
	PurchaseID uuid.UUID
}

func (e ErrPurchaseNotFound) Error() string {
	return "purchase not found: " + e.PurchaseID.String()
}

// Is implements the errors.Is interface for ErrPurchaseNotFound
func (e ErrPurchaseNotFound) Is(target error) bool {
	t, ok := target.(ErrPurchaseNotFound)
	if !ok {
		return false
	}
	if t.PurchaseID == uuid.Nil {
		return true
	}
	return e.PurchaseID == t.PurchaseID
}

// ErrDuplicatePurchase indicates idempotency key uniqueness violation on the
// purchase table itself
type ErrDuplicatePurchase struct {
	IdempotencyKey string
}

func (e ErrDuplicatePurchase) Error() string {
	return "purchase already recorded for idempotency key: " + e.IdempotencyKey
}
