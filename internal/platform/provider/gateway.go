// Package provider is the boundary to the external VAS provider. It submits
// purchases, requeries delivery status and classifies failures into exactly
// two kinds: definitively rejected (no charge happened) and ambiguous (the
// charge may have happened and only a requery can tell). The gateway performs
// no local state mutation.
package provider

import (
	"context"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// SubmitRequest carries one purchase to the provider. RequestID is the
// idempotency key, forwarded so the provider can deduplicate on its side too.
type SubmitRequest struct {
	RequestID string
	Service   string // provider-side product code, e.g. "airtime"
	Category  shared.Category
	Amount    int64 // minor units
	Recipient string
	Metadata  map[string]string
}

// SubmitResult is a definitive acceptance from the provider
type SubmitResult struct {
	ProviderReference string
	DeliveryState     shared.DeliveryState
	Message           string
}

// RequeryResult reports the provider-side delivery state of a prior submit
type RequeryResult struct {
	ProviderReference string
	DeliveryState     shared.DeliveryState
}

// Gateway is the call contract against the VAS provider.
type Gateway interface {
	// Submit sends the purchase. A nil error means the provider accepted
	// and will (or did) deliver. ErrRejected means the provider declined
	// or the request demonstrably never reached it; no charge occurred.
	// ErrAmbiguous means the request may have been received but no
	// response arrived; the outcome must be resolved via Requery before
	// any ledger mutation.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	// Requery asks for the delivery state of a previously submitted
	// request, identified by the request ID or provider reference.
	Requery(ctx context.Context, reference string) (*RequeryResult, error)
}

// ErrRejected indicates a definitive negative outcome: the provider declined
// the request, or it never left this process. Nothing was charged.
type ErrRejected struct {
	Reason string
}

func (e ErrRejected) Error() string {
	return "provider rejected request: " + e.Reason
}

// Is implements the errors.Is interface for ErrRejected
func (e ErrRejected) Is(target error) bool {
	_, ok := target.(ErrRejected)
	return ok
}

// ErrAmbiguous indicates the request may have reached the provider but no
// usable response came back. The outcome is unknown until requeried.
type ErrAmbiguous struct {
	Reason string
}

func (e ErrAmbiguous) Error() string {
	return "provider outcome ambiguous: " + e.Reason
}

// Is implements the errors.Is interface for ErrAmbiguous
func (e ErrAmbiguous) Is(target error) bool {
	_, ok := target.(ErrAmbiguous)
	return ok
}
