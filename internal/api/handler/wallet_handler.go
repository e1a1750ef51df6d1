package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
)

// WalletHandler handles HTTP requests for wallet read operations
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// GetByID retrieves wallet details by its ID, returns 404 if not found
func (h *WalletHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	wal, err := h.walletService.GetWalletByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapWalletToResponse(wal))
}

// GetTransactions retrieves paginated ledger history for a wallet
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.walletService.GetWalletTransactions(
		c.Request.Context(),
		id,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	var transactions []TransactionResponse
	for _, entry := range entries {
		transactions = append(transactions, mapTransactionToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, int(total))
}

// mapWalletToResponse maps a wallet to the wallet response DTO
func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		AccountID: w.AccountID.String(),
		Role:      string(w.Role),
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// mapTransactionToResponse maps a ledger transaction to the response DTO
func mapTransactionToResponse(txn *ledger.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:            txn.ID.String(),
		WalletID:      txn.WalletID.String(),
		Direction:     string(txn.Direction),
		Category:      string(txn.Category),
		Amount:        txn.Amount,
		BalanceBefore: txn.BalanceBefore,
		BalanceAfter:  txn.BalanceAfter,
		Status:        string(txn.Status),
		Reference:     txn.Reference,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}

	if txn.PurchaseID != nil {
		response.PurchaseID = txn.PurchaseID.String()
	}
	if txn.TripID != nil {
		response.TripID = txn.TripID.String()
	}

	return response
}
