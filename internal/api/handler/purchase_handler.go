package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/api/middleware"
	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/vas"
)

// PurchaseHandler handles HTTP requests for VAS purchase operations
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	logger          *slog.Logger
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(logger *slog.Logger, purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// Create executes an idempotent purchase of the category named in the path.
// A fresh purchase responds 201; a replay of an already completed request
// responds 200 with the original receipt.
func (h *PurchaseHandler) Create(c *gin.Context) {
	// the category rides in the :id wildcard; gin permits one param name
	// per segment and the requery route already claims :id
	category, err := shared.ParseCategory(c.Param("id"))
	if err != nil {
		h.logger.Error("Invalid purchase category", "category", c.Param("id"), "error", err)
		RespondBadRequest(c, "Invalid purchase category")
		return
	}

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "wallet_id", req.WalletID, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	receipt, err := h.purchaseService.Purchase(c.Request.Context(), &vas.PurchaseRequest{
		WalletID:      walletID,
		Category:      category,
		Amount:        req.Amount,
		Recipient:     req.Recipient,
		Metadata:      req.Metadata,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := mapReceiptToResponse(receipt)
	if receipt.Replayed {
		RespondOK(c, response)
		return
	}
	RespondCreated(c, response)
}

// GetByID retrieves purchase details by its ID, returns 404 if not found
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid purchase ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid purchase ID")
		return
	}

	p, err := h.purchaseService.GetPurchaseByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapPurchaseToResponse(p))
}

// Requery re-checks the provider-side delivery state of a purchase and
// returns the state after reconciliation
func (h *PurchaseHandler) Requery(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid purchase ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid purchase ID")
		return
	}

	state, err := h.purchaseService.RequeryDelivery(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, RequeryResponse{
		PurchaseID:    id.String(),
		DeliveryState: string(state),
	})
}

// mapReceiptToResponse maps a purchase receipt to the purchase response DTO
func mapReceiptToResponse(r *vas.PurchaseReceipt) PurchaseResponse {
	return PurchaseResponse{
		PurchaseID:        r.PurchaseID.String(),
		WalletID:          r.WalletID.String(),
		Category:          string(r.Category),
		Amount:            r.Amount,
		Recipient:         r.Recipient,
		Status:            string(r.Status),
		DeliveryState:     string(r.DeliveryState),
		ProviderReference: r.ProviderReference,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}

// mapPurchaseToResponse maps a stored purchase to the purchase response DTO
func mapPurchaseToResponse(p *purchase.VASPurchase) PurchaseResponse {
	return PurchaseResponse{
		PurchaseID:        p.ID.String(),
		WalletID:          p.WalletID.String(),
		Category:          string(p.Category),
		Amount:            p.Amount,
		Recipient:         p.Recipient,
		Status:            string(p.Status),
		DeliveryState:     string(p.DeliveryState),
		ProviderReference: p.ProviderReference,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}
