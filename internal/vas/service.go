package vas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/reconciliation"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
	"github.com/movaapp/mova-backend/internal/platform/provider"
	"github.com/movaapp/mova-backend/internal/posting"
)

// PurchaseService orchestrates one VAS purchase end to end. The sequence is
// fixed: validate, reserve the idempotency key, pre-check funds, submit to
// the provider outside any database transaction, then commit the purchase
// row, the wallet debit and the cached receipt atomically.
//
// The service never retries a submit whose outcome it does not know; an
// undecided outcome ends in a reconciliation alert with the reservation left
// PENDING, because only the provider can say whether money moved.
type PurchaseService struct {
	logger          *slog.Logger
	catalog         *Catalog
	txRunner        persistence.TxRunner
	idempotency     idempotency.Repository
	wallets         wallet.Repository
	purchases       purchase.Repository
	writer          LedgerWriter
	gateway         provider.Gateway
	alerts          AlertSink
	events          producers.MessagePublisher
	staleAfter      time.Duration
	requeryAttempts int
	requeryDelay    time.Duration
}

// NewPurchaseService creates the purchase orchestrator
func NewPurchaseService(
	logger *slog.Logger,
	vasCfg *config.VasConfig,
	providerCfg *config.ProviderConfig,
	catalog *Catalog,
	txRunner persistence.TxRunner,
	idempotencyRepo idempotency.Repository,
	walletRepo wallet.Repository,
	purchaseRepo purchase.Repository,
	writer LedgerWriter,
	gateway provider.Gateway,
	alerts AlertSink,
	events producers.MessagePublisher,
) *PurchaseService {
	return &PurchaseService{
		logger:          logger,
		catalog:         catalog,
		txRunner:        txRunner,
		idempotency:     idempotencyRepo,
		wallets:         walletRepo,
		purchases:       purchaseRepo,
		writer:          writer,
		gateway:         gateway,
		alerts:          alerts,
		events:          events,
		staleAfter:      vasCfg.ReservationStaleAfter,
		requeryAttempts: providerCfg.RequeryAttempts,
		requeryDelay:    providerCfg.RequeryDelay,
	}
}

// Purchase executes one idempotent purchase. Completed replays of the same
// logical request return the cached receipt without contacting the provider.
func (s *PurchaseService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseReceipt, error) {
	logger := s.logger
	if req.CorrelationID != "" {
		logger = logger.With("correlation_id", req.CorrelationID)
	}

	normalized, err := s.catalog.Validate(req.Category, req.Amount, req.Recipient)
	if err != nil {
		purchasesTotal.WithLabelValues(string(req.Category), outcomeInvalid).Inc()
		return nil, err
	}
	req.Recipient = normalized

	key := DeriveKey(req.WalletID, req.Category, req.Recipient, req.Amount)
	requestHash, err := HashRequest(req)
	if err != nil {
		return nil, err
	}
	logger = logger.With("idempotency_key", key)

	reservation, err := s.idempotency.Reserve(ctx, key, requestHash, time.Now().Add(-s.staleAfter))
	if err != nil {
		return nil, err
	}

	if !reservation.Fresh {
		replaysTotal.Inc()
		logger.Info("Replaying completed purchase from cached receipt")
		var receipt PurchaseReceipt
		if err := json.Unmarshal(reservation.Record.CachedResponse, &receipt); err != nil {
			return nil, fmt.Errorf("failed to decode cached purchase receipt: %w", err)
		}
		receipt.Replayed = true
		return &receipt, nil
	}

	return s.execute(ctx, logger, key, req)
}

// execute runs the fresh path: funds pre-check, provider submit, commit
func (s *PurchaseService) execute(ctx context.Context, logger *slog.Logger, key string, req *PurchaseRequest) (*PurchaseReceipt, error) {
	wal, err := s.wallets.GetByID(ctx, req.WalletID)
	if err != nil {
		s.failReservation(ctx, logger, key)
		return nil, err
	}
	// Advisory only. The authoritative check happens under the row lock at
	// commit; this one just avoids charging the provider for a purchase
	// that obviously cannot be funded.
	if !wal.CanDebit(req.Amount) {
		s.failReservation(ctx, logger, key)
		purchasesTotal.WithLabelValues(string(req.Category), outcomeInsufficientFunds).Inc()
		logger.Info("Purchase declined before submit", "reason", "insufficient funds", "balance", wal.Balance, "amount", req.Amount)
		return nil, wallet.ErrInsufficientFunds
	}

	def, ok := s.catalog.Definition(req.Category)
	if !ok {
		s.failReservation(ctx, logger, key)
		return nil, ErrUnknownCategory{Category: req.Category}
	}

	result, err := s.gateway.Submit(ctx, provider.SubmitRequest{
		RequestID: key,
		Service:   def.Service,
		Category:  req.Category,
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Metadata:  req.Metadata,
	})
	if err != nil {
		if errors.Is(err, provider.ErrRejected{}) {
			logger.Info("Provider rejected purchase", "error", err)
			s.failReservation(ctx, logger, key)
			purchasesTotal.WithLabelValues(string(req.Category), outcomeRejected).Inc()
			return nil, err
		}
		return s.resolveAmbiguous(ctx, logger, key, req)
	}

	return s.commit(ctx, logger, key, req, result.ProviderReference, result.DeliveryState)
}

// resolveAmbiguous requeries the provider until the outcome of an ambiguous
// submit is known or the attempt budget runs out. The one thing this method
// must never do is call Fail while the outcome is still unknown: a FAILED
// reservation invites a retry, and a retry of a request the provider may
// have processed is a double charge.
func (s *PurchaseService) resolveAmbiguous(ctx context.Context, logger *slog.Logger, key string, req *PurchaseRequest) (*PurchaseReceipt, error) {
	logger.Warn("Provider outcome ambiguous, requerying", "attempts", s.requeryAttempts)

	for attempt := 1; attempt <= s.requeryAttempts; attempt++ {
		select {
		case <-ctx.Done():
			logger.Warn("Context ended before ambiguity was resolved", "error", ctx.Err())
			return s.unresolved(ctx, logger, key, req)
		case <-time.After(s.requeryDelay):
		}

		result, err := s.gateway.Requery(ctx, key)
		if err != nil {
			logger.Warn("Requery attempt failed", "attempt", attempt, "error", err)
			continue
		}

		switch result.DeliveryState {
		case shared.DeliveryStateDelivered, shared.DeliveryStatePending:
			logger.Info("Ambiguous submit resolved as accepted",
				"attempt", attempt,
				"provider_reference", result.ProviderReference,
				"delivery_state", result.DeliveryState)
			return s.commit(ctx, logger, key, req, result.ProviderReference, result.DeliveryState)
		case shared.DeliveryStateFailed:
			logger.Info("Ambiguous submit resolved as not received", "attempt", attempt)
			s.failReservation(ctx, logger, key)
			purchasesTotal.WithLabelValues(string(req.Category), outcomeRejected).Inc()
			return nil, provider.ErrRejected{Reason: "provider has no record of the request"}
		}
	}

	return s.unresolved(ctx, logger, key, req)
}

// unresolved raises the alert for a submit whose outcome stayed unknown
func (s *PurchaseService) unresolved(ctx context.Context, logger *slog.Logger, key string, req *PurchaseRequest) (*PurchaseReceipt, error) {
	logger.Error("Provider outcome still unknown after requeries, raising reconciliation alert")

	alert := reconciliation.NewAlert(reconciliation.AlertReasonUnresolvedAmbiguity, req.WalletID, req.Category, req.Amount)
	alert.Recipient = req.Recipient
	alert.IdempotencyKey = key
	alert.Detail = "provider submit got no response and requery could not determine the outcome"
	alert.Metadata = req.Metadata
	alert.CorrelationID = req.CorrelationID
	s.alerts.Raise(ctx, alert)

	purchasesTotal.WithLabelValues(string(req.Category), outcomeAmbiguous).Inc()
	return nil, ErrOutcomeUnknown{Key: key}
}

// commit writes the purchase row, the wallet debit and the cached receipt in
// one database transaction. Failure after this point means the provider has
// accepted a purchase the ledger does not show, which is strictly worse than
// any client-facing error, so it raises the highest-priority alert.
func (s *PurchaseService) commit(ctx context.Context, logger *slog.Logger, key string, req *PurchaseRequest, providerRef string, delivery shared.DeliveryState) (*PurchaseReceipt, error) {
	p := purchase.NewAccepted(req.WalletID, req.Category, req.Amount, req.Recipient, providerRef, key, delivery, req.Metadata)

	var receipt *PurchaseReceipt
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.purchases.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}

		if _, err := s.writer.Apply(ctx, tx, posting.ApplyInput{
			WalletID:      req.WalletID,
			Direction:     shared.DirectionDebit,
			Category:      req.Category,
			Amount:        req.Amount,
			Reference:     purchaseReference(p.ID),
			PurchaseID:    &p.ID,
			CorrelationID: req.CorrelationID,
		}); err != nil {
			return err
		}

		receipt = &PurchaseReceipt{
			PurchaseID:        p.ID,
			WalletID:          p.WalletID,
			Category:          p.Category,
			Amount:            p.Amount,
			Recipient:         p.Recipient,
			Status:            p.Status,
			DeliveryState:     p.DeliveryState,
			ProviderReference: p.ProviderReference,
			CreatedAt:         p.CreatedAt,
		}
		cached, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("failed to serialize purchase receipt: %w", err)
		}
		return s.idempotency.WithTx(tx).Complete(ctx, key, cached)
	})
	if err != nil {
		logger.Error("Ledger commit failed after provider acceptance",
			"provider_reference", providerRef,
			"error", err)

		alert := reconciliation.NewAlert(reconciliation.AlertReasonCommitFailure, req.WalletID, req.Category, req.Amount)
		alert.Recipient = req.Recipient
		alert.IdempotencyKey = key
		alert.ProviderReference = providerRef
		alert.Detail = err.Error()
		alert.Metadata = req.Metadata
		alert.CorrelationID = req.CorrelationID
		s.alerts.Raise(ctx, alert)

		purchasesTotal.WithLabelValues(string(req.Category), outcomeCommitFailure).Inc()
		return nil, ErrCommitFailure{Key: key, ProviderReference: providerRef}
	}

	purchasesTotal.WithLabelValues(string(req.Category), outcomeSuccess).Inc()
	logger.Info("Purchase completed",
		"purchase_id", p.ID,
		"provider_reference", providerRef,
		"delivery_state", delivery,
		"amount", req.Amount)

	s.publishPurchaseEvent(ctx, shared.EventTypePurchaseCompleted, p, req.CorrelationID)
	return receipt, nil
}

// failReservation marks the reservation FAILED so the key can be retried.
// Safe on every path that knows no money moved; Fail never reverts COMPLETED.
func (s *PurchaseService) failReservation(ctx context.Context, logger *slog.Logger, key string) {
	if err := s.idempotency.Fail(ctx, key); err != nil {
		logger.Error("Failed to release idempotency reservation", "error", err)
	}
}

func (s *PurchaseService) publishPurchaseEvent(ctx context.Context, eventType shared.EventType, p *purchase.VASPurchase, correlationID string) {
	event := shared.NewEvent(eventType, correlationID, shared.PurchaseEventPayload{
		PurchaseID:        p.ID,
		WalletID:          p.WalletID,
		Category:          p.Category,
		Amount:            p.Amount,
		Recipient:         p.Recipient,
		ProviderReference: p.ProviderReference,
		DeliveryState:     p.DeliveryState,
	})
	if err := s.events.Publish(ctx, p.WalletID.String(), event); err != nil {
		s.logger.Error("Failed to publish purchase event", "purchase_id", p.ID, "type", eventType, "error", err)
	}
}
