package reconciliation

import (
	"context"

	"github.com/google/uuid"
)

// AlertRepository archives reconciliation alerts durably
type AlertRepository interface {
	Insert(ctx context.Context, alert *Alert) error
	ListOpen(ctx context.Context, limit int) ([]*Alert, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

// ErrAlertNotFound indicates missing reconciliation alert
type ErrAlertNotFound struct {
	AlertID uuid.UUID
}

func (e ErrAlertNotFound) Error() string {
	return "reconciliation alert not found: " + e.AlertID.String()
}

// Is implements the errors.Is interface for ErrAlertNotFound
func (e ErrAlertNotFound) Is(target error) bool {
	t, ok := target.(ErrAlertNotFound)
	if !ok {
		return false
	}
	if t.AlertID == uuid.Nil {
		return true
	}
	return e.AlertID == t.AlertID
}

// ProviderCall is an audit document for a single gateway round trip
type ProviderCall struct {
	Kind        string `json:"kind" bson:"kind"` // submit or requery
	Reference   string `json:"reference" bson:"reference"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	Amount      int64  `json:"amount,omitempty" bson:"amount,omitempty"`
	Recipient   string `json:"recipient,omitempty" bson:"recipient,omitempty"`
	Outcome     string `json:"outcome" bson:"outcome"`
	ProviderRef string `json:"provider_ref,omitempty" bson:"provider_ref,omitempty"`
	Error       string `json:"error,omitempty" bson:"error,omitempty"`
	LatencyMS   int64  `json:"latency_ms" bson:"latency_ms"`
	At          string `json:"at" bson:"at"` // RFC3339
}

// ProviderCallRepository records gateway round trips for audit
type ProviderCallRepository interface {
	Insert(ctx context.Context, call *ProviderCall) error
}
