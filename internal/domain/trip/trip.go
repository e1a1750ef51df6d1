package trip

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a read-only view of a trip as the settlement engine needs it.
// Trip rows are written by the ride service; this module only reads them.
type Trip struct {
	ID                 uuid.UUID `json:"id"`
	DriverWalletID     uuid.UUID `json:"driver_wallet_id"`
	OperatorWalletID   uuid.UUID `json:"operator_wallet_id"`
	Route              string    `json:"route"`
	FarePerPassenger   int64     `json:"fare_per_passenger"` // minor units
	VehicleCapacity    int       `json:"vehicle_capacity"`
	PaidPassengerCount int       `json:"paid_passenger_count"`
	Completed          bool      `json:"completed"`
	CreatedAt          time.Time `json:"created_at"`
}

// CapacityReached reports whether every seat on the vehicle has been paid for
func (t *Trip) CapacityReached() bool {
	return t.VehicleCapacity > 0 && t.PaidPassengerCount >= t.VehicleCapacity
}

// Settleable reports whether the trip qualifies for settlement: either the
// vehicle filled up or the trip was explicitly marked completed
func (t *Trip) Settleable() bool {
	return t.CapacityReached() || t.Completed
}

// TotalFares is the revenue collected for the trip
func (t *Trip) TotalFares() int64 {
	return int64(t.PaidPassengerCount) * t.FarePerPassenger
}
