package fares

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrCapacityNotReached indicates a trip cannot settle yet: seats remain
// unpaid and the trip has not been marked completed
type ErrCapacityNotReached struct {
	TripID         uuid.UUID
	PaidPassengers int
	Capacity       int
}

func (e ErrCapacityNotReached) Error() string {
	return fmt.Sprintf("trip %s is not settleable: %d of %d seats paid", e.TripID, e.PaidPassengers, e.Capacity)
}

// Is implements the errors.Is interface for ErrCapacityNotReached
func (e ErrCapacityNotReached) Is(target error) bool {
	t, ok := target.(ErrCapacityNotReached)
	if !ok {
		return false
	}
	if t.TripID == uuid.Nil {
		return true
	}
	return e.TripID == t.TripID
}

// ErrUnauthorized indicates the approver failed role or PIN verification
type ErrUnauthorized struct {
	WalletID uuid.UUID
}

func (e ErrUnauthorized) Error() string {
	return "settlement approval unauthorized for wallet: " + e.WalletID.String()
}

// Is implements the errors.Is interface for ErrUnauthorized
func (e ErrUnauthorized) Is(target error) bool {
	t, ok := target.(ErrUnauthorized)
	if !ok {
		return false
	}
	if t.WalletID == uuid.Nil {
		return true
	}
	return e.WalletID == t.WalletID
}
