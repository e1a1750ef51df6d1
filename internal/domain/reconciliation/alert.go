package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// AlertReason classifies why manual reconciliation is required
type AlertReason string

const (
	// AlertReasonCommitFailure: the provider accepted and charged the
	// request but the local ledger commit failed. Money moved externally
	// with no internal record; the highest-priority alert.
	AlertReasonCommitFailure AlertReason = "LEDGER_COMMIT_FAILURE"

	// AlertReasonUnresolvedAmbiguity: the provider call timed out and
	// requery could not determine the outcome within the attempt budget.
	AlertReasonUnresolvedAmbiguity AlertReason = "UNRESOLVED_AMBIGUITY"

	// AlertReasonDeliveryFailed: payment was recorded but the provider
	// later reported the delivery failed; a refund decision is needed.
	AlertReasonDeliveryFailed AlertReason = "DELIVERY_FAILED"
)

// Alert carries everything an operator needs to manually replay or refund a
// purchase: the idempotency key, the provider reference and the original
// payload. Alerts are archived in MongoDB and announced on Kafka.
type Alert struct {
	ID                uuid.UUID         `json:"id" bson:"id"`
	Reason            AlertReason       `json:"reason" bson:"reason"`
	WalletID          uuid.UUID         `json:"wallet_id" bson:"wallet_id"`
	Category          shared.Category   `json:"category" bson:"category"`
	Amount            int64             `json:"amount" bson:"amount"`
	Recipient         string            `json:"recipient,omitempty" bson:"recipient,omitempty"`
	IdempotencyKey    string            `json:"idempotency_key" bson:"idempotency_key"`
	ProviderReference string            `json:"provider_reference,omitempty" bson:"provider_reference,omitempty"`
	Detail            string            `json:"detail,omitempty" bson:"detail,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CorrelationID     string            `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Open              bool              `json:"open" bson:"open"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
}

// NewAlert builds an open reconciliation alert
func NewAlert(reason AlertReason, walletID uuid.UUID, category shared.Category, amount int64) *Alert {
	return &Alert{
		ID:        uuid.New(),
		Reason:    reason,
		WalletID:  walletID,
		Category:  category,
		Amount:    amount,
		Open:      true,
		CreatedAt: time.Now().UTC(),
	}
}
