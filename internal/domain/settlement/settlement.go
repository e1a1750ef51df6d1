package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// Settlement is the durable record of a trip's fare split. The trip_id
// uniqueness constraint makes it the mutual-exclusion mechanism for
// approval: at most one settlement per trip can ever reach APPROVED.
type Settlement struct {
	ID                 uuid.UUID               `json:"id"`
	TripID             uuid.UUID               `json:"trip_id"`
	TotalAmount        int64                   `json:"total_amount"` // minor units
	DriverPayout       int64                   `json:"driver_payout"`
	OperatorCommission int64                   `json:"operator_commission"`
	PlatformFee        int64                   `json:"platform_fee"`
	Status             shared.SettlementStatus `json:"status"`
	ApprovedAt         *time.Time              `json:"approved_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
}

// NewPending builds a computed, not yet approved settlement
func NewPending(tripID uuid.UUID, totalAmount, driverPayout, operatorCommission, platformFee int64) *Settlement {
	return &Settlement{
		ID:                 uuid.New(),
		TripID:             tripID,
		TotalAmount:        totalAmount,
		DriverPayout:       driverPayout,
		OperatorCommission: operatorCommission,
		PlatformFee:        platformFee,
		Status:             shared.SettlementStatusPending,
		CreatedAt:          time.Now(),
	}
}

// Conserves reports whether the three shares sum exactly to the total
func (s *Settlement) Conserves() bool {
	return s.DriverPayout+s.OperatorCommission+s.PlatformFee == s.TotalAmount
}
