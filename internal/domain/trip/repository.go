package trip

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read-only trip access for settlement computation
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Trip, error)
}

// ErrTripNotFound indicates missing trip
type ErrTripNotFound struct {
	TripID uuid.UUID
}

func (e ErrTripNotFound) Error() string {
	return "trip not found: " + e.TripID.String()
}

// Is implements the errors.Is interface for ErrTripNotFound
func (e ErrTripNotFound) Is(target error) bool {
	t, ok := target.(ErrTripNotFound)
	if !ok {
		return false
	}
	if t.TripID == uuid.Nil {
		return true
	}
	return e.TripID == t.TripID
}
