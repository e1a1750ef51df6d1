package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/api/middleware"
	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/transfer"
)

// TransferHandler handles HTTP requests for wallet-to-wallet transfers
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create executes an idempotent transfer between two wallets. A fresh
// transfer responds 201; a replay of an already completed request responds
// 200 with the original receipt.
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	senderID, err := uuid.Parse(req.SenderWalletID)
	if err != nil {
		h.logger.Error("Invalid sender wallet ID", "wallet_id", req.SenderWalletID, "error", err)
		RespondBadRequest(c, "Invalid sender wallet ID")
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverWalletID)
	if err != nil {
		h.logger.Error("Invalid receiver wallet ID", "wallet_id", req.ReceiverWalletID, "error", err)
		RespondBadRequest(c, "Invalid receiver wallet ID")
		return
	}

	receipt, err := h.transferService.Transfer(c.Request.Context(), &transfer.Request{
		SenderWalletID:   senderID,
		ReceiverWalletID: receiverID,
		Amount:           req.Amount,
		Narration:        req.Narration,
		CorrelationID:    middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := mapTransferReceiptToResponse(receipt)
	if receipt.Replayed {
		RespondOK(c, response)
		return
	}
	RespondCreated(c, response)
}

// mapTransferReceiptToResponse maps a transfer receipt to the response DTO
func mapTransferReceiptToResponse(r *transfer.Receipt) TransferResponse {
	return TransferResponse{
		TransferID:       r.TransferID.String(),
		SenderWalletID:   r.SenderWalletID.String(),
		ReceiverWalletID: r.ReceiverWalletID.String(),
		Amount:           r.Amount,
		Narration:        r.Narration,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}
