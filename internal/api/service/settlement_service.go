package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/fares"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	engine *fares.Engine
}

// NewSettlementService creates a new API settlement service
func NewSettlementService(engine *fares.Engine) SettlementService {
	return &SettlementServiceImpl{
		engine: engine,
	}
}

// ComputeSettlement derives and records the fare split for a settleable trip
func (s *SettlementServiceImpl) ComputeSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, bool, error) {
	return s.engine.Compute(ctx, tripID)
}

// GetSettlement retrieves the settlement recorded for a trip
func (s *SettlementServiceImpl) GetSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error) {
	return s.engine.Settlement(ctx, tripID)
}

// ApproveSettlement verifies the approver and distributes the computed split
func (s *SettlementServiceImpl) ApproveSettlement(ctx context.Context, req fares.ApprovalRequest) (*settlement.Settlement, error) {
	return s.engine.Approve(ctx, req)
}
