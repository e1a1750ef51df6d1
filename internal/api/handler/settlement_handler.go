package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/api/middleware"
	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/fares"
)

// SettlementHandler handles HTTP requests for trip settlement operations
type SettlementHandler struct {
	settlementService service.SettlementService
	logger            *slog.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// Compute derives and records the fare split for the trip named in the path.
// A newly computed settlement responds 201; recomputation responds 200 with
// the stored split unchanged.
func (h *SettlementHandler) Compute(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	stl, fresh, err := h.settlementService.ComputeSettlement(c.Request.Context(), tripID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := mapSettlementToResponse(stl)
	if fresh {
		RespondCreated(c, response)
		return
	}
	RespondOK(c, response)
}

// Get retrieves the settlement recorded for a trip, returns 404 if none
// has been computed
func (h *SettlementHandler) Get(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	stl, err := h.settlementService.GetSettlement(c.Request.Context(), tripID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapSettlementToResponse(stl))
}

// Approve verifies the approver's wallet PIN and distributes the computed
// split to the driver, operator and platform wallets exactly once
func (h *SettlementHandler) Approve(c *gin.Context) {
	tripID, ok := h.tripID(c)
	if !ok {
		return
	}

	var req ApproveSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	approverID, err := uuid.Parse(req.ApproverWalletID)
	if err != nil {
		h.logger.Error("Invalid approver wallet ID", "wallet_id", req.ApproverWalletID, "error", err)
		RespondBadRequest(c, "Invalid approver wallet ID")
		return
	}

	stl, err := h.settlementService.ApproveSettlement(c.Request.Context(), fares.ApprovalRequest{
		TripID:           tripID,
		ApproverWalletID: approverID,
		Pin:              req.Pin,
		CorrelationID:    middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapSettlementToResponse(stl))
}

func (h *SettlementHandler) tripID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid trip ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid trip ID")
		return uuid.Nil, false
	}
	return id, true
}

// mapSettlementToResponse maps a settlement to the response DTO
func mapSettlementToResponse(s *settlement.Settlement) SettlementResponse {
	response := SettlementResponse{
		SettlementID:       s.ID.String(),
		TripID:             s.TripID.String(),
		TotalAmount:        s.TotalAmount,
		DriverPayout:       s.DriverPayout,
		OperatorCommission: s.OperatorCommission,
		PlatformFee:        s.PlatformFee,
		Status:             string(s.Status),
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
	}

	if s.ApprovedAt != nil {
		response.ApprovedAt = s.ApprovedAt.Format(time.RFC3339)
	}

	return response
}
