package shared

import "fmt"

// Direction defines which way money moves on a ledger transaction
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Category defines the business event a ledger transaction belongs to
type Category string

const (
	CategoryAirtime        Category = "AIRTIME"
	CategoryData           Category = "DATA"
	CategoryElectricity    Category = "ELECTRICITY"
	CategoryTV             Category = "TV"
	CategoryTransfer       Category = "TRANSFER"
	CategoryTripSettlement Category = "TRIP_SETTLEMENT"
)

// ParseCategory converts a request-level category string into a Category.
// Only the four externally purchasable categories are accepted here;
// TRANSFER and TRIP_SETTLEMENT are internal and never arrive from clients.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryAirtime, CategoryData, CategoryElectricity, CategoryTV:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown purchase category: %q", s)
	}
}

// TransactionStatus defines ledger transaction states
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// IdempotencyStatus defines the lifecycle of an idempotency record
type IdempotencyStatus string

const (
	IdempotencyStatusPending   IdempotencyStatus = "PENDING"
	IdempotencyStatusCompleted IdempotencyStatus = "COMPLETED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// PurchaseStatus defines the payment outcome of a VAS purchase.
// A purchase row only exists after the provider accepted the request,
// so PENDING is not a valid payment state.
type PurchaseStatus string

const (
	PurchaseStatusSuccess PurchaseStatus = "SUCCESS"
	PurchaseStatusFailed  PurchaseStatus = "FAILED"
)

// DeliveryState defines the provider-side delivery outcome of a purchase,
// reconciled via requery after the payment itself is recorded
type DeliveryState string

const (
	DeliveryStateDelivered DeliveryState = "DELIVERED"
	DeliveryStatePending   DeliveryState = "PENDING"
	DeliveryStateFailed    DeliveryState = "FAILED"
)

// SettlementStatus defines trip settlement states
type SettlementStatus string

const (
	SettlementStatusPending  SettlementStatus = "PENDING"
	SettlementStatusApproved SettlementStatus = "APPROVED"
)

// Role defines the closed set of wallet roles
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleOperator  Role = "OPERATOR"
	RolePlatform  Role = "PLATFORM"
)

// ParseRole converts a stored role string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePassenger, RoleDriver, RoleOperator, RolePlatform:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown wallet role: %q", s)
	}
}
