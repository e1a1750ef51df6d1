package purchase

import (
	"time"

	"github.com/google/uuid"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// VASPurchase records a value-added-service purchase that the provider has
// accepted. Rows are never created speculatively: acceptance comes first,
// then the row and the wallet debit are committed together.
//
// Status is the payment outcome and is final at creation (SUCCESS).
// DeliveryState tracks the provider-side delivery of the purchased service
// and is reconciled afterwards via requery without touching the wallet.
type VASPurchase struct {
	ID                uuid.UUID             `json:"id"`
	WalletID          uuid.UUID             `json:"wallet_id"`
	Category          shared.Category       `json:"category"`
	Amount            int64                 `json:"amount"` // minor units
	Recipient         string                `json:"recipient"`
	Status            shared.PurchaseStatus `json:"status"`
	DeliveryState     shared.DeliveryState  `json:"delivery_state"`
	ProviderReference string                `json:"provider_reference"`
	IdempotencyKey    string                `json:"idempotency_key"`
	Metadata          map[string]string     `json:"metadata,omitempty"`
	LastRequeryAt     *time.Time            `json:"last_requery_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NewAccepted builds the purchase row for a provider-accepted request
func NewAccepted(
	walletID uuid.UUID,
	category shared.Category,
	amount int64,
	recipient string,
	providerReference string,
	idempotencyKey string,
	deliveryState shared.DeliveryState,
	metadata map[string]string,
) *VASPurchase {
	now := time.Now()
	return &VASPurchase{
		ID:                uuid.New(),
		WalletID:          walletID,
		Category:          category,
		Amount:            amount,
		Recipient:         recipient,
		Status:            shared.PurchaseStatusSuccess,
		DeliveryState:     deliveryState,
		ProviderReference: providerReference,
		IdempotencyKey:    idempotencyKey,
		Metadata:          metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
