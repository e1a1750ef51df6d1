package vas

import (
	"time"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// PurchaseRequest is the typed purchase request handed down from the API
// layer. Recipient is replaced with its normalized form during validation,
// before key derivation and hashing. CorrelationID is transport metadata and
// deliberately excluded from the request fingerprint.
type PurchaseRequest struct {
	WalletID      uuid.UUID         `json:"wallet_id"`
	Category      shared.Category   `json:"category"`
	Amount        int64             `json:"amount"`
	Recipient     string            `json:"recipient"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CorrelationID string            `json:"-"`
}

// PurchaseReceipt is the response serialized into the idempotency record at
// completion and returned verbatim to every replay of the same key.
// Replayed is set on cache hits and never serialized.
type PurchaseReceipt struct {
	PurchaseID        uuid.UUID             `json:"purchase_id"`
	WalletID          uuid.UUID             `json:"wallet_id"`
	Category          shared.Category       `json:"category"`
	Amount            int64                 `json:"amount"`
	Recipient         string                `json:"recipient"`
	Status            shared.PurchaseStatus `json:"status"`
	DeliveryState     shared.DeliveryState  `json:"delivery_state"`
	ProviderReference string                `json:"provider_reference"`
	CreatedAt         time.Time             `json:"created_at"`
	Replayed          bool                  `json:"-"`
}
