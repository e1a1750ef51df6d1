// Package transfer implements idempotent peer transfers between wallets.
// A transfer reserves a derived idempotency key, then debits the sender and
// credits the receiver inside one transaction with the wallet rows locked in
// deterministic id order. There is no external provider leg, so any failure
// rolls back cleanly and re-arms the reservation for a retry.
package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
	"github.com/movaapp/mova-backend/internal/posting"
)

// ErrSelfTransfer indicates sender and receiver are the same wallet
var ErrSelfTransfer = errors.New("sender and receiver wallets must differ")

// LedgerWriter posts one balance movement inside the caller's transaction
type LedgerWriter interface {
	Apply(ctx context.Context, tx pgx.Tx, in posting.ApplyInput) (*ledger.Transaction, error)
}

// Request describes a wallet-to-wallet transfer. The correlation ID rides
// along for logging but stays out of the request hash.
type Request struct {
	SenderWalletID   uuid.UUID `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID `json:"receiver_wallet_id"`
	Amount           int64     `json:"amount"`
	Narration        string    `json:"narration,omitempty"`
	CorrelationID    string    `json:"-"`
}

// Receipt is the caller-visible result. Its serialized form is cached under
// the idempotency key, so a replayed transfer returns these bytes unchanged.
type Receipt struct {
	TransferID       uuid.UUID `json:"transfer_id"`
	SenderWalletID   uuid.UUID `json:"sender_wallet_id"`
	ReceiverWalletID uuid.UUID `json:"receiver_wallet_id"`
	Amount           int64     `json:"amount"`
	Narration        string    `json:"narration,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Replayed         bool      `json:"-"`
}

// Service moves money between wallets
type Service struct {
	logger      *slog.Logger
	txRunner    persistence.TxRunner
	idempotency idempotency.Repository
	writer      LedgerWriter
	events      producers.MessagePublisher
	staleAfter  time.Duration
}

// NewService creates a transfer service. staleAfter bounds how long a PENDING
// reservation blocks retries before it is considered abandoned.
func NewService(
	logger *slog.Logger,
	staleAfter time.Duration,
	txRunner persistence.TxRunner,
	idempotencyRepo idempotency.Repository,
	writer LedgerWriter,
	events producers.MessagePublisher,
) *Service {
	return &Service{
		logger:      logger,
		txRunner:    txRunner,
		idempotency: idempotencyRepo,
		writer:      writer,
		events:      events,
		staleAfter:  staleAfter,
	}
}

// Transfer executes or replays one wallet-to-wallet transfer
func (s *Service) Transfer(ctx context.Context, req *Request) (*Receipt, error) {
	logger := s.logger.With("sender_wallet_id", req.SenderWalletID, "receiver_wallet_id", req.ReceiverWalletID)
	if req.CorrelationID != "" {
		logger = logger.With("correlation_id", req.CorrelationID)
	}

	if req.Amount <= 0 {
		transfersTotal.WithLabelValues(transferOutcomeInvalid).Inc()
		return nil, wallet.ErrInvalidAmount
	}
	if req.SenderWalletID == req.ReceiverWalletID {
		transfersTotal.WithLabelValues(transferOutcomeInvalid).Inc()
		return nil, ErrSelfTransfer
	}

	key := deriveKey(req.SenderWalletID, req.ReceiverWalletID, req.Amount)
	requestHash, err := hashRequest(req)
	if err != nil {
		return nil, err
	}
	logger = logger.With("idempotency_key", key)

	reservation, err := s.idempotency.Reserve(ctx, key, requestHash, time.Now().Add(-s.staleAfter))
	if err != nil {
		return nil, err
	}
	if !reservation.Fresh {
		var receipt Receipt
		if err := json.Unmarshal(reservation.Record.CachedResponse, &receipt); err != nil {
			return nil, fmt.Errorf("decoding cached transfer receipt: %w", err)
		}
		receipt.Replayed = true
		transfersTotal.WithLabelValues(transferOutcomeReplayed).Inc()
		logger.Info("Replayed transfer from idempotency cache", "transfer_id", receipt.TransferID)
		return &receipt, nil
	}

	return s.execute(ctx, logger, key, req)
}

func (s *Service) execute(ctx context.Context, logger *slog.Logger, key string, req *Request) (*Receipt, error) {
	transferID := uuid.New()
	receipt := &Receipt{
		TransferID:       transferID,
		SenderWalletID:   req.SenderWalletID,
		ReceiverWalletID: req.ReceiverWalletID,
		Amount:           req.Amount,
		Narration:        req.Narration,
		CreatedAt:        time.Now().UTC(),
	}

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		for _, leg := range transferLegs(transferID, req) {
			if _, err := s.writer.Apply(ctx, tx, leg); err != nil {
				return err
			}
		}
		cached, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("encoding transfer receipt: %w", err)
		}
		return s.idempotency.WithTx(tx).Complete(ctx, key, cached)
	})
	if err != nil {
		// nothing moved; release the reservation so a retry starts fresh
		s.failReservation(ctx, logger, key)
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			transfersTotal.WithLabelValues(transferOutcomeInsufficientFunds).Inc()
		} else {
			transfersTotal.WithLabelValues(transferOutcomeFailed).Inc()
		}
		return nil, err
	}

	transfersTotal.WithLabelValues(transferOutcomeSuccess).Inc()
	logger.Info("Completed wallet transfer", "transfer_id", transferID, "amount", req.Amount)
	s.publishTransferEvent(ctx, receipt, req.CorrelationID)
	return receipt, nil
}

func (s *Service) failReservation(ctx context.Context, logger *slog.Logger, key string) {
	if err := s.idempotency.Fail(ctx, key); err != nil {
		logger.Error("Failed to release idempotency reservation", "error", err)
	}
}

func (s *Service) publishTransferEvent(ctx context.Context, receipt *Receipt, correlationID string) {
	event := shared.NewEvent(shared.EventTypeTransferCompleted, correlationID, shared.TransferEventPayload{
		TransferID:       receipt.TransferID,
		SenderWalletID:   receipt.SenderWalletID,
		ReceiverWalletID: receipt.ReceiverWalletID,
		Amount:           receipt.Amount,
	})
	if err := s.events.Publish(ctx, receipt.SenderWalletID.String(), event); err != nil {
		s.logger.Error("Failed to publish transfer event", "transfer_id", receipt.TransferID, "error", err)
	}
}

// transferLegs orders the debit and credit by wallet ID so concurrent
// transfers between the same pair always lock rows in the same order
func transferLegs(transferID uuid.UUID, req *Request) []posting.ApplyInput {
	legs := []posting.ApplyInput{
		{
			WalletID:      req.SenderWalletID,
			Direction:     shared.DirectionDebit,
			Category:      shared.CategoryTransfer,
			Amount:        req.Amount,
			Reference:     transferReference(transferID, "out"),
			CorrelationID: req.CorrelationID,
		},
		{
			WalletID:      req.ReceiverWalletID,
			Direction:     shared.DirectionCredit,
			Category:      shared.CategoryTransfer,
			Amount:        req.Amount,
			Reference:     transferReference(transferID, "in"),
			CorrelationID: req.CorrelationID,
		},
	}
	if req.ReceiverWalletID.String() < req.SenderWalletID.String() {
		legs[0], legs[1] = legs[1], legs[0]
	}
	return legs
}

func transferReference(transferID uuid.UUID, leg string) string {
	return "transfer:" + transferID.String() + ":" + leg
}

// deriveKey fingerprints the logical transfer so client retries collapse
// onto one reservation regardless of transport-level request IDs
func deriveKey(senderID, receiverID uuid.UUID, amount int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", senderID, shared.CategoryTransfer, receiverID, amount)))
	return hex.EncodeToString(sum[:])
}

func hashRequest(req *Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling transfer request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
