package vas

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/platform/provider"
)

func newTestRequeryService(t *testing.T) (*RequeryService, *serviceMocks) {
	t.Helper()

	m := &serviceMocks{
		purchases: new(MockPurchaseRepository),
		gateway:   new(MockGateway),
		alerts:    new(MockAlertSink),
		events:    new(MockPublisher),
	}
	svc := NewRequeryService(newTestLogger(), m.purchases, m.gateway, m.alerts, m.events)
	return svc, m
}

func newPendingPurchase() *purchase.VASPurchase {
	return &purchase.VASPurchase{
		ID:                uuid.New(),
		WalletID:          uuid.New(),
		Category:          shared.CategoryData,
		Amount:            150_000,
		Recipient:         "07031112233",
		Status:            shared.PurchaseStatusSuccess,
		DeliveryState:     shared.DeliveryStatePending,
		ProviderReference: "prov-900",
		IdempotencyKey:    "key-900",
		CreatedAt:         time.Now().Add(-time.Hour),
	}
}

func TestRequeryService_Requery(t *testing.T) {
	ctx := context.Background()

	t.Run("pending purchase resolved as delivered", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		m.gateway.On("Requery", ctx, "prov-900").
			Return(&provider.RequeryResult{ProviderReference: "prov-900", DeliveryState: shared.DeliveryStateDelivered}, nil)
		m.purchases.On("UpdateDeliveryState", ctx, p.ID, shared.DeliveryStateDelivered, mock.AnythingOfType("time.Time")).
			Return(nil)
		m.events.On("Publish", mock.Anything, p.WalletID.String(), mock.MatchedBy(func(e *shared.Event) bool {
			return e.Type == shared.EventTypePurchaseRequeried
		})).Return(nil)

		state, err := svc.Requery(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStateDelivered, state)
		m.alerts.AssertNotCalled(t, "Raise", mock.Anything, mock.Anything)
		m.purchases.AssertExpectations(t)
		m.events.AssertExpectations(t)
	})

	t.Run("terminal purchase returns without provider contact", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()
		p.DeliveryState = shared.DeliveryStateDelivered

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)

		state, err := svc.Requery(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStateDelivered, state)
		m.gateway.AssertNotCalled(t, "Requery", mock.Anything, mock.Anything)
		m.purchases.AssertNotCalled(t, "UpdateDeliveryState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("still pending records the attempt without an event", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		m.gateway.On("Requery", ctx, "prov-900").
			Return(&provider.RequeryResult{ProviderReference: "prov-900", DeliveryState: shared.DeliveryStatePending}, nil)
		m.purchases.On("UpdateDeliveryState", ctx, p.ID, shared.DeliveryStatePending, mock.AnythingOfType("time.Time")).
			Return(nil)

		state, err := svc.Requery(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStatePending, state)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		m.alerts.AssertNotCalled(t, "Raise", mock.Anything, mock.Anything)
	})

	t.Run("flip to failed raises a refund-decision alert", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		m.gateway.On("Requery", ctx, "prov-900").
			Return(&provider.RequeryResult{ProviderReference: "prov-900", DeliveryState: shared.DeliveryStateFailed}, nil)
		m.purchases.On("UpdateDeliveryState", ctx, p.ID, shared.DeliveryStateFailed, mock.AnythingOfType("time.Time")).
			Return(nil)
		m.alerts.On("Raise", mock.Anything, mock.MatchedBy(func(a *reconciliation.Alert) bool {
			return a.Reason == reconciliation.AlertReasonDeliveryFailed &&
				a.IdempotencyKey == "key-900" &&
				a.WalletID == p.WalletID
		})).Return()
		m.events.On("Publish", mock.Anything, p.WalletID.String(), mock.Anything).Return(nil)

		state, err := svc.Requery(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStateFailed, state)
		m.alerts.AssertExpectations(t)
	})

	t.Run("falls back to the idempotency key without a provider reference", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()
		p.ProviderReference = ""

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		m.gateway.On("Requery", ctx, "key-900").
			Return(&provider.RequeryResult{ProviderReference: "prov-found", DeliveryState: shared.DeliveryStateDelivered}, nil)
		m.purchases.On("UpdateDeliveryState", ctx, p.ID, shared.DeliveryStateDelivered, mock.AnythingOfType("time.Time")).
			Return(nil)
		m.events.On("Publish", mock.Anything, p.WalletID.String(), mock.Anything).Return(nil)

		state, err := svc.Requery(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, shared.DeliveryStateDelivered, state)
		m.gateway.AssertExpectations(t)
	})

	t.Run("ambiguous requery leaves the row untouched", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		p := newPendingPurchase()

		m.purchases.On("GetByID", ctx, p.ID).Return(p, nil)
		m.gateway.On("Requery", ctx, "prov-900").
			Return(nil, provider.ErrAmbiguous{Reason: "timeout"})

		state, err := svc.Requery(ctx, p.ID)

		assert.ErrorIs(t, err, provider.ErrAmbiguous{})
		assert.Empty(t, state)
		m.purchases.AssertNotCalled(t, "UpdateDeliveryState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("purchase not found", func(t *testing.T) {
		svc, m := newTestRequeryService(t)
		missing := uuid.New()

		m.purchases.On("GetByID", ctx, missing).Return(nil, purchase.ErrPurchaseNotFound{PurchaseID: missing})

		state, err := svc.Requery(ctx, missing)

		assert.ErrorIs(t, err, purchase.ErrPurchaseNotFound{})
		assert.Empty(t, state)
	})
}
