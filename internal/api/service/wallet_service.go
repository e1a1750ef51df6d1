package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	walletRepo wallet.Repository
	ledgerRepo ledger.Repository
}

// NewWalletService creates a new wallet service
func NewWalletService(walletRepo wallet.Repository, ledgerRepo ledger.Repository) WalletService {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
	}
}

// GetWalletByID retrieves a wallet by its ID, returns ErrWalletNotFound if not found
func (s *WalletServiceImpl) GetWalletByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return s.walletRepo.GetByID(ctx, id)
}

// GetWalletTransactions retrieves paginated ledger history for a wallet.
// The wallet is loaded first so an unknown ID surfaces as ErrWalletNotFound
// instead of an empty page.
func (s *WalletServiceImpl) GetWalletTransactions(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error) {
	if _, err := s.walletRepo.GetByID(ctx, walletID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage

	transactions, err := s.ledgerRepo.GetByWalletID(ctx, walletID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByWalletID(ctx, walletID)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}
