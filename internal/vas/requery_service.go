package vas

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/provider"
)

// RequeryService reconciles the delivery state of recorded purchases against
// the provider. Payment already stands for every row it touches, so it never
// goes near a wallet: only delivery_state and last_requery_at move. A flip
// to FAILED means the customer paid for something that was not delivered,
// which raises a refund-decision alert.
type RequeryService struct {
	logger    *slog.Logger
	purchases purchase.Repository
	gateway   provider.Gateway
	alerts    AlertSink
	events    producers.MessagePublisher
}

// NewRequeryService creates a delivery reconciliation service
func NewRequeryService(
	logger *slog.Logger,
	purchases purchase.Repository,
	gateway provider.Gateway,
	alerts AlertSink,
	events producers.MessagePublisher,
) *RequeryService {
	return &RequeryService{
		logger:    logger,
		purchases: purchases,
		gateway:   gateway,
		alerts:    alerts,
		events:    events,
	}
}

// Requery refreshes the delivery state of one purchase. Terminal states are
// returned as is without a provider call.
func (s *RequeryService) Requery(ctx context.Context, purchaseID uuid.UUID) (shared.DeliveryState, error) {
	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return "", err
	}
	if p.DeliveryState != shared.DeliveryStatePending {
		return p.DeliveryState, nil
	}

	// Ambiguous submits can be recorded without a provider reference; the
	// request ID works for requery either way.
	reference := p.ProviderReference
	if reference == "" {
		reference = p.IdempotencyKey
	}

	result, err := s.gateway.Requery(ctx, reference)
	if err != nil {
		requeriesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Delivery requery failed", "purchase_id", p.ID, "reference", reference, "error", err)
		return "", err
	}

	now := time.Now().UTC()
	if err := s.purchases.UpdateDeliveryState(ctx, p.ID, result.DeliveryState, now); err != nil {
		return "", err
	}
	requeriesTotal.WithLabelValues(strings.ToLower(string(result.DeliveryState))).Inc()

	if result.DeliveryState == p.DeliveryState {
		return result.DeliveryState, nil
	}

	s.logger.Info("Delivery state updated",
		"purchase_id", p.ID,
		"from", p.DeliveryState,
		"to", result.DeliveryState)

	p.DeliveryState = result.DeliveryState
	if result.ProviderReference != "" {
		p.ProviderReference = result.ProviderReference
	}

	if result.DeliveryState == shared.DeliveryStateFailed {
		alert := reconciliation.NewAlert(reconciliation.AlertReasonDeliveryFailed, p.WalletID, p.Category, p.Amount)
		alert.Recipient = p.Recipient
		alert.IdempotencyKey = p.IdempotencyKey
		alert.ProviderReference = p.ProviderReference
		alert.Detail = "provider reported delivery failure after payment was recorded"
		s.alerts.Raise(ctx, alert)
	}

	s.publishRequeryEvent(ctx, p)
	return result.DeliveryState, nil
}

func (s *RequeryService) publishRequeryEvent(ctx context.Context, p *purchase.VASPurchase) {
	event := shared.NewEvent(shared.EventTypePurchaseRequeried, "", shared.PurchaseEventPayload{
		PurchaseID:        p.ID,
		WalletID:          p.WalletID,
		Category:          p.Category,
		Amount:            p.Amount,
		Recipient:         p.Recipient,
		ProviderReference: p.ProviderReference,
		DeliveryState:     p.DeliveryState,
	})
	if err := s.events.Publish(ctx, p.WalletID.String(), event); err != nil {
		s.logger.Error("Failed to publish requery event", "purchase_id", p.ID, "error", err)
	}
}
