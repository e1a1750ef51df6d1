package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/fares"
	"github.com/movaapp/mova-backend/internal/transfer"
	"github.com/movaapp/mova-backend/internal/vas"
)

// PurchaseService defines the interface for VAS purchase operations
type PurchaseService interface {
	// Purchase executes one idempotent VAS purchase and returns its receipt.
	// Replays of a completed request return the cached receipt with Replayed set
	Purchase(ctx context.Context, req *vas.PurchaseRequest) (*vas.PurchaseReceipt, error)

	// GetPurchaseByID retrieves a purchase by its ID
	// Returns ErrPurchaseNotFound if the purchase doesn't exist
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (*purchase.VASPurchase, error)

	// RequeryDelivery re-checks the provider-side delivery state of a purchase
	// and returns the state after reconciliation
	RequeryDelivery(ctx context.Context, id uuid.UUID) (shared.DeliveryState, error)
}

// WalletService defines the interface for wallet read operations
type WalletService interface {
	// GetWalletByID retrieves a wallet by its ID
	// Returns ErrWalletNotFound if the wallet doesn't exist
	GetWalletByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)

	// GetWalletTransactions retrieves the paginated ledger history of a wallet,
	// newest first. Returns transactions, total count, and any error;
	// returns ErrWalletNotFound if the wallet doesn't exist
	GetWalletTransactions(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error)
}

// TransferService defines the interface for wallet-to-wallet transfers
type TransferService interface {
	// Transfer executes one idempotent transfer and returns its receipt.
	// Replays of a completed request return the cached receipt with Replayed set
	Transfer(ctx context.Context, req *transfer.Request) (*transfer.Receipt, error)
}

// SettlementService defines the interface for trip settlement operations
type SettlementService interface {
	// ComputeSettlement derives and records the fare split for a settleable
	// trip. The boolean reports whether this call created the settlement;
	// recomputation returns the stored split unchanged
	ComputeSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, bool, error)

	// GetSettlement retrieves the settlement recorded for a trip
	// Returns ErrSettlementNotFound if none has been computed
	GetSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error)

	// ApproveSettlement verifies the approver and distributes the computed
	// split to the driver, operator and platform wallets exactly once
	ApproveSettlement(ctx context.Context, req fares.ApprovalRequest) (*settlement.Settlement, error)
}
