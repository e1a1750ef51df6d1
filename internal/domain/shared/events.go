package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of domain event published to Kafka
type EventType string

const (
	EventTypePurchaseCompleted  EventType = "purchase.completed"
	EventTypePurchaseRequeried  EventType = "purchase.requeried"
	EventTypeTransferCompleted  EventType = "transfer.completed"
	EventTypeSettlementApproved EventType = "settlement.approved"
)

// Event is the envelope for all domain events on the events topic.
// Payload holds the event-specific body.
type Event struct {
	ID            uuid.UUID   `json:"id"`
	Type          EventType   `json:"type"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Payload       interface{} `json:"payload"`
}

// NewEvent builds an event envelope with a fresh ID and timestamp
func NewEvent(eventType EventType, correlationID string, payload interface{}) *Event {
	return &Event{
		ID:            uuid.New(),
		Type:          eventType,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

// PurchaseEventPayload describes a purchase lifecycle event
type PurchaseEventPayload struct {
	PurchaseID        uuid.UUID     `json:"purchase_id"`
	WalletID          uuid.UUID     `json:"wallet_id"`
	Category          Category      `json:"category"`
	Amount            int64         `json:"amount"`
	Recipient         string        `json:"recipient"`
	ProviderReference string        `json:"provider_reference"`
	DeliveryState     DeliveryState `json:"delivery_state"`
}

// TransferEventPayload describes a completed wallet-to-wallet transfer
type TransferEventPayload struct {
	TransferID       uuid.UUID `json:"transfer_id"`
	SenderWalletID   uuid.UUID `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID `json:"receiver_wallet_id"`
	Amount           int64     `json:"amount"`
}

// SettlementEventPayload describes an approved trip settlement
type SettlementEventPayload struct {
	SettlementID       uuid.UUID `json:"settlement_id"`
	TripID             uuid.UUID `json:"trip_id"`
	TotalAmount        int64     `json:"total_amount"`
	DriverPayout       int64     `json:"driver_payout"`
	OperatorCommission int64     `json:"operator_commission"`
	PlatformFee        int64     `json:"platform_fee"`
}
