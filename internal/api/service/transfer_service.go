package service

import (
	"context"

	"github.com/movaapp/mova-backend/internal/transfer"
)

// TransferServiceImpl implements the TransferService interface
type TransferServiceImpl struct {
	transfers *transfer.Service
}

// NewTransferService creates a new API transfer service
func NewTransferService(transfers *transfer.Service) TransferService {
	return &TransferServiceImpl{
		transfers: transfers,
	}
}

// Transfer executes one idempotent wallet-to-wallet transfer
func (s *TransferServiceImpl) Transfer(ctx context.Context, req *transfer.Request) (*transfer.Receipt, error) {
	return s.transfers.Transfer(ctx, req)
}
