// Package fares implements the trip settlement engine: it computes the
// distribution of a trip's collected fares between driver, park operator and
// platform, and on operator approval credits all three wallets in a single
// transaction guarded by the per-trip settlement record.
package fares

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/trip"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/pin"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
	"github.com/movaapp/mova-backend/internal/posting"
)

// ApprovalRequest authorizes distribution of a computed settlement
type ApprovalRequest struct {
	TripID           uuid.UUID
	ApproverWalletID uuid.UUID
	Pin              string
	CorrelationID    string
}

// Engine drives the settlement state machine for a trip:
// no settlement -> PENDING (computed) -> APPROVED (funds distributed).
type Engine struct {
	logger         *slog.Logger
	pcts           SplitPercentages
	platformWallet uuid.UUID
	txRunner       persistence.TxRunner
	trips          trip.Repository
	settlements    settlement.Repository
	wallets        wallet.Repository
	writer         LedgerWriter
	limiter        AttemptLimiter
	events         producers.MessagePublisher
}

// NewEngine creates a settlement engine with the configured fare split
func NewEngine(
	logger *slog.Logger,
	cfg *config.SettlementConfig,
	txRunner persistence.TxRunner,
	tripRepo trip.Repository,
	settlementRepo settlement.Repository,
	walletRepo wallet.Repository,
	writer LedgerWriter,
	limiter AttemptLimiter,
	events producers.MessagePublisher,
) (*Engine, error) {
	platformWallet, err := cfg.PlatformWallet()
	if err != nil {
		return nil, fmt.Errorf("invalid platform wallet id: %w", err)
	}
	return &Engine{
		logger:         logger,
		pcts:           SplitPercentages{Driver: cfg.DriverPct, Operator: cfg.OperatorPct, Platform: cfg.PlatformPct},
		platformWallet: platformWallet,
		txRunner:       txRunner,
		trips:          tripRepo,
		settlements:    settlementRepo,
		wallets:        walletRepo,
		writer:         writer,
		limiter:        limiter,
		events:         events,
	}, nil
}

// Compute derives and records the PENDING settlement for a settleable trip.
// Recomputing a trip returns the stored settlement unchanged, so the split
// cannot drift between computation and approval even if the configured
// percentages change in between. The boolean reports whether this call
// created the settlement or found one already recorded.
func (e *Engine) Compute(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, bool, error) {
	logger := e.logger.With("trip_id", tripID)

	trp, err := e.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, false, err
	}
	if !trp.Settleable() {
		return nil, false, ErrCapacityNotReached{TripID: tripID, PaidPassengers: trp.PaidPassengerCount, Capacity: trp.VehicleCapacity}
	}

	existing, err := e.pendingSettlement(ctx, tripID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, settlement.ErrSettlementNotFound{}):
		return nil, false, err
	}

	total := trp.TotalFares()
	split := SplitFares(total, e.pcts)
	pending := settlement.NewPending(tripID, total, split.Driver, split.Operator, split.Platform)
	if err := e.settlements.Create(ctx, pending); err != nil {
		if errors.Is(err, settlement.ErrDuplicateSettlement{}) {
			// lost a concurrent computation; the first writer's split stands
			stl, err := e.pendingSettlement(ctx, tripID)
			return stl, false, err
		}
		return nil, false, err
	}

	settlementsTotal.WithLabelValues(stageComputed).Inc()
	logger.Info("Computed trip settlement",
		"settlement_id", pending.ID,
		"total_amount", total,
		"driver_payout", split.Driver,
		"operator_commission", split.Operator,
		"platform_fee", split.Platform)
	return pending, true, nil
}

// Approve verifies the approver, flips the trip's settlement to APPROVED and
// credits the driver, operator and platform wallets inside one transaction.
// The guarded status transition makes concurrent approvals single shot: the
// loser observes ErrAlreadyApproved and moves no money.
func (e *Engine) Approve(ctx context.Context, req ApprovalRequest) (*settlement.Settlement, error) {
	logger := e.logger.With("trip_id", req.TripID, "approver_wallet_id", req.ApproverWalletID)
	if req.CorrelationID != "" {
		logger = logger.With("correlation_id", req.CorrelationID)
	}

	if err := e.limiter.Allow(ctx, req.ApproverWalletID); err != nil {
		if errors.Is(err, pin.ErrTooManyAttempts{}) {
			approvalRejectionsTotal.WithLabelValues(rejectRateLimited).Inc()
			logger.Warn("Settlement approval rate limited")
		}
		return nil, err
	}
	if err := e.verifyApprover(ctx, req.ApproverWalletID, req.Pin); err != nil {
		if errors.Is(err, ErrUnauthorized{}) {
			approvalRejectionsTotal.WithLabelValues(rejectUnauthorized).Inc()
			logger.Warn("Settlement approval unauthorized")
		}
		return nil, err
	}
	e.limiter.Reset(ctx, req.ApproverWalletID)

	trp, err := e.trips.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if !trp.Settleable() {
		approvalRejectionsTotal.WithLabelValues(rejectCapacity).Inc()
		return nil, ErrCapacityNotReached{TripID: req.TripID, PaidPassengers: trp.PaidPassengerCount, Capacity: trp.VehicleCapacity}
	}

	stl, err := e.pendingSettlement(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadyApproved{}) {
			approvalRejectionsTotal.WithLabelValues(rejectAlreadyApproved).Inc()
		}
		return nil, err
	}

	approvedAt := time.Now().UTC()
	err = e.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.settlements.WithTx(tx).Approve(ctx, req.TripID, approvedAt); err != nil {
			return err
		}
		for _, leg := range distributionLegs(trp, stl, e.platformWallet) {
			if leg.amount == 0 {
				continue
			}
			in := posting.ApplyInput{
				WalletID:      leg.walletID,
				Direction:     shared.DirectionCredit,
				Category:      shared.CategoryTripSettlement,
				Amount:        leg.amount,
				Reference:     settlementReference(req.TripID, leg.name),
				TripID:        &req.TripID,
				CorrelationID: req.CorrelationID,
			}
			if _, err := e.writer.Apply(ctx, tx, in); err != nil {
				return fmt.Errorf("crediting %s share: %w", leg.name, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadyApproved{}) {
			approvalRejectionsTotal.WithLabelValues(rejectAlreadyApproved).Inc()
			logger.Warn("Settlement already approved by a concurrent request")
		}
		return nil, err
	}

	stl.Status = shared.SettlementStatusApproved
	stl.ApprovedAt = &approvedAt

	settlementsTotal.WithLabelValues(stageApproved).Inc()
	logger.Info("Approved trip settlement",
		"settlement_id", stl.ID,
		"total_amount", stl.TotalAmount,
		"driver_payout", stl.DriverPayout,
		"operator_commission", stl.OperatorCommission,
		"platform_fee", stl.PlatformFee)
	e.publishSettlementEvent(ctx, stl, req.CorrelationID)
	return stl, nil
}

// Settlement returns the computed or approved settlement for a trip
func (e *Engine) Settlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error) {
	return e.settlements.GetByTripID(ctx, tripID)
}

// verifyApprover checks that the wallet exists, carries the operator role and
// presented the right PIN. Every failure mode maps to ErrUnauthorized so the
// response does not reveal which check failed.
func (e *Engine) verifyApprover(ctx context.Context, walletID uuid.UUID, pinCode string) error {
	approver, err := e.wallets.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			// keep missing wallets indistinguishable from PIN mismatches
			_ = pin.Verify("", pinCode)
			return ErrUnauthorized{WalletID: walletID}
		}
		return err
	}
	if approver.Role != shared.RoleOperator {
		return ErrUnauthorized{WalletID: walletID}
	}
	if err := pin.Verify(approver.PINHash, pinCode); err != nil {
		if errors.Is(err, pin.ErrMismatch) {
			return ErrUnauthorized{WalletID: walletID}
		}
		return fmt.Errorf("verifying approver pin: %w", err)
	}
	return nil
}

// pendingSettlement loads the trip's settlement and rejects approved ones
func (e *Engine) pendingSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error) {
	stl, err := e.settlements.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if stl.Status == shared.SettlementStatusApproved {
		return nil, settlement.ErrAlreadyApproved{TripID: tripID}
	}
	return stl, nil
}

type distributionLeg struct {
	name     string
	walletID uuid.UUID
	amount   int64
}

// distributionLegs orders the three credits by wallet ID so concurrent
// settlements touching the same wallets always acquire row locks in the same
// order. The shared platform wallet makes this ordering load bearing.
func distributionLegs(trp *trip.Trip, stl *settlement.Settlement, platformWallet uuid.UUID) []distributionLeg {
	legs := []distributionLeg{
		{name: "driver", walletID: trp.DriverWalletID, amount: stl.DriverPayout},
		{name: "operator", walletID: trp.OperatorWalletID, amount: stl.OperatorCommission},
		{name: "platform", walletID: platformWallet, amount: stl.PlatformFee},
	}
	sort.Slice(legs, func(i, j int) bool {
		return legs[i].walletID.String() < legs[j].walletID.String()
	})
	return legs
}

func settlementReference(tripID uuid.UUID, leg string) string {
	return "settlement:" + tripID.String() + ":" + leg
}

func (e *Engine) publishSettlementEvent(ctx context.Context, stl *settlement.Settlement, correlationID string) {
	event := shared.NewEvent(shared.EventTypeSettlementApproved, correlationID, shared.SettlementEventPayload{
		SettlementID:       stl.ID,
		TripID:             stl.TripID,
		TotalAmount:        stl.TotalAmount,
		DriverPayout:       stl.DriverPayout,
		OperatorCommission: stl.OperatorCommission,
		PlatformFee:        stl.PlatformFee,
	})
	if err := e.events.Publish(ctx, stl.TripID.String(), event); err != nil {
		e.logger.Error("Failed to publish settlement event", "trip_id", stl.TripID, "error", err)
	}
}
