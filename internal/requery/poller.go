package requery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// Poller drives delivery reconciliation for purchases whose provider
// delivery is still pending. Every tick it loads a batch of due purchases
// and pushes each one through the requerier.
type Poller struct {
	purchases      purchase.Repository
	requerier      DeliveryRequerier
	logger         *slog.Logger
	pollInterval   time.Duration
	batchSize      int
	minPurchaseAge time.Duration
}

func NewPoller(
	cfg *config.WorkerConfig,
	purchases purchase.Repository,
	requerier DeliveryRequerier,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		purchases:      purchases,
		requerier:      requerier,
		logger:         logger,
		pollInterval:   cfg.PollInterval,
		batchSize:      cfg.BatchSize,
		minPurchaseAge: cfg.MinPurchaseAge,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Delivery Requery Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"min_purchase_age", p.minPurchaseAge.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Delivery Requery Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Requery Poller tick: processing due purchases")
			if err := p.processDuePurchases(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending deliveries", "error", err)
			}
		}
	}
}

func (p *Poller) processDuePurchases(ctx context.Context) error {
	// Purchases touched more recently than the minimum age are left alone so
	// the provider is not hammered for outcomes it has not settled yet.
	cutoff := time.Now().UTC().Add(-p.minPurchaseAge)
	purchases, err := p.purchases.ListPendingDelivery(ctx, cutoff, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list purchases with pending delivery: %w", err)
	}

	if len(purchases) == 0 {
		p.logger.Debug("No purchases due for delivery requery.")
		return nil
	}

	p.logger.Info("Fetched purchases due for delivery requery", "count", len(purchases))

	for _, due := range purchases {
		logger := p.logger.With("purchase_id", due.ID, "idempotency_key", due.IdempotencyKey)

		state, err := p.requerier.Requery(ctx, due.ID)
		if err != nil {
			pollerPurchasesTotal.WithLabelValues(pollerOutcomeError).Inc()
			logger.Error("Delivery requery failed", "error", err)
			continue
		}

		switch state {
		case shared.DeliveryStatePending:
			pollerPurchasesTotal.WithLabelValues(pollerOutcomePending).Inc()
			logger.Debug("Delivery still pending at the provider")
		default:
			pollerPurchasesTotal.WithLabelValues(pollerOutcomeResolved).Inc()
			logger.Info("Delivery state reconciled", "delivery_state", state)
		}
	}
	return nil
}
