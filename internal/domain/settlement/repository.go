package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines settlement persistence operations
type Repository interface {
	Create(ctx context.Context, s *Settlement) error
	GetByTripID(ctx context.Context, tripID uuid.UUID) (*Settlement, error)

	// Approve transitions the trip's settlement from PENDING to APPROVED.
	// The update is guarded on the current status: if another approval won
	// the race, zero rows change and ErrAlreadyApproved is returned.
	Approve(ctx context.Context, tripID uuid.UUID, approvedAt time.Time) error

	WithTx(tx pgx.Tx) Repository
}

// ErrSettlementNotFound indicates no settlement has been computed for the trip
type ErrSettlementNotFound struct {
	TripID uuid.UUID
}

func (e ErrSettlementNotFound) Error() string {
	return "settlement not found for trip: " + e.TripID.String()
}

// Is implements the errors.Is interface for ErrSettlementNotFound
func (e ErrSettlementNotFound) Is(target error) bool {
	t, ok := target.(ErrSettlementNotFound)
	if !ok {
		return false
	}
	if t.TripID == uuid.Nil {
		return true
	}
	return e.TripID == t.TripID
}

// ErrAlreadyApproved indicates the trip's settlement was approved previously;
// the caller performed zero credits
type ErrAlreadyApproved struct {
	TripID uuid.UUID
}

func (e ErrAlreadyApproved) Error() string {
	return "settlement already approved for trip: " + e.TripID.String()
}

// Is implements the errors.Is interface for ErrAlreadyApproved
func (e ErrAlreadyApproved) Is(target error) bool {
	t, ok := target.(ErrAlreadyApproved)
	if !ok {
		return false
	}
	if t.TripID == uuid.Nil {
		return true
	}
	return e.TripID == t.TripID
}

// ErrDuplicateSettlement indicates the trip already has a settlement row
type ErrDuplicateSettlement struct {
	TripID uuid.UUID
}

func (e ErrDuplicateSettlement) Error() string {
	return "settlement already exists for trip: " + e.TripID.String()
}

// Is implements the errors.Is interface for ErrDuplicateSettlement
func (e ErrDuplicateSettlement) Is(target error) bool {
	t, ok := target.(ErrDuplicateSettlement)
	if !ok {
		return false
	}
	if t.TripID == uuid.Nil {
		return true
	}
	return e.TripID == t.TripID
}
