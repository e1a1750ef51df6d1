package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/vas"
)

// PurchaseServiceImpl implements the PurchaseService interface by delegating
// to the purchase and requery orchestrators
type PurchaseServiceImpl struct {
	purchases *vas.PurchaseService
	requeries *vas.RequeryService
	repo      purchase.Repository
}

// NewPurchaseService creates a new API purchase service
func NewPurchaseService(purchases *vas.PurchaseService, requeries *vas.RequeryService, repo purchase.Repository) PurchaseService {
	return &PurchaseServiceImpl{
		purchases: purchases,
		requeries: requeries,
		repo:      repo,
	}
}

// Purchase executes one idempotent VAS purchase
func (s *PurchaseServiceImpl) Purchase(ctx context.Context, req *vas.PurchaseRequest) (*vas.PurchaseReceipt, error) {
	return s.purchases.Purchase(ctx, req)
}

// GetPurchaseByID retrieves a purchase by its ID, returns ErrPurchaseNotFound if not found
func (s *PurchaseServiceImpl) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*purchase.VASPurchase, error) {
	return s.repo.GetByID(ctx, id)
}

// RequeryDelivery re-checks the provider-side delivery state of a purchase
func (s *PurchaseServiceImpl) RequeryDelivery(ctx context.Context, id uuid.UUID) (shared.DeliveryState, error) {
	return s.requeries.Requery(ctx, id)
}
