package shared

import (
	"github.com/google/uuid"
)

// PurchaseRequest is the validated, typed payload for a VAS purchase.
// It is built at the HTTP boundary; the orchestrator never sees raw bodies.
type PurchaseRequest struct {
	WalletID        uuid.UUID         `json:"wallet_id"`
	Category        Category          `json:"category"`
	Amount          int64             `json:"amount"` // minor units
	Recipient       string            `json:"recipient"`
	ClientReference string            `json:"client_reference,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CorrelationID   string            `json:"correlation_id,omitempty"`
}

// TransferRequest is the validated, typed payload for a wallet-to-wallet transfer
type TransferRequest struct {
	SenderWalletID   uuid.UUID `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID `json:"receiver_wallet_id"`
	Amount           int64     `json:"amount"` // minor units
	Narration        string    `json:"narration,omitempty"`
	ClientReference  string    `json:"client_reference,omitempty"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
}

// ApproveSettlementRequest is the validated, typed payload for approving a trip settlement
type ApproveSettlementRequest struct {
	TripID           uuid.UUID `json:"trip_id"`
	ApproverWalletID uuid.UUID `json:"approver_wallet_id"`
	PIN              string    `json:"-"` // never serialized
	CorrelationID    string    `json:"correlation_id,omitempty"`
}
