package requery

import (
	"context"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// DeliveryRequerier reconciles the delivery state of one purchase against
// the provider and returns the state after reconciliation
type DeliveryRequerier interface {
	Requery(ctx context.Context, purchaseID uuid.UUID) (shared.DeliveryState, error)
}
