package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/trip"
	"github.com/movaapp/mova-backend/internal/fares"
	"github.com/movaapp/mova-backend/internal/pin"
)

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) ComputeSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, bool, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*settlement.Settlement), args.Bool(1), args.Error(2)
}

func (m *MockSettlementService) GetSettlement(ctx context.Context, tripID uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementService) ApproveSettlement(ctx context.Context, req fares.ApprovalRequest) (*settlement.Settlement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func TestSettlementHandler_Compute(t *testing.T) {
	logger := newTestLogger()

	newRouter := func(mockService *MockSettlementService) *gin.Engine {
		handler := NewSettlementHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/trips/:id/settlement", handler.Compute)
		return router
	}

	t.Run("FreshComputation", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		stl := settlement.NewPending(tripID, 1000, 930, 50, 20)
		mockService.On("ComputeSettlement", mock.Anything, tripID).Return(stl, true, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var body SettlementResponse
		decodeResponse(t, rr, &body)
		assert.Equal(t, tripID.String(), body.TripID)
		assert.Equal(t, int64(1000), body.TotalAmount)
		assert.Equal(t, int64(930), body.DriverPayout)
		assert.Equal(t, int64(50), body.OperatorCommission)
		assert.Equal(t, int64(20), body.PlatformFee)
		assert.Equal(t, "PENDING", body.Status)
		assert.Empty(t, body.ApprovedAt)

		mockService.AssertExpectations(t)
	})

	t.Run("RecomputationReturnsOK", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		stl := settlement.NewPending(tripID, 1000, 930, 50, 20)
		mockService.On("ComputeSettlement", mock.Anything, tripID).Return(stl, false, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("CapacityNotReached", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ComputeSettlement", mock.Anything, tripID).
			Return(nil, false, fares.ErrCapacityNotReached{TripID: tripID, PaidPassengers: 2, Capacity: 4}).Once()

		req, _ := http.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "CAPACITY_NOT_REACHED", response.Error.Code)
	})

	t.Run("TripNotFound", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ComputeSettlement", mock.Anything, tripID).
			Return(nil, false, trip.ErrTripNotFound{TripID: tripID}).Once()

		req, _ := http.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ComputeSettlement", mock.Anything, tripID).
			Return(nil, false, settlement.ErrAlreadyApproved{TripID: tripID}).Once()

		req, _ := http.NewRequest(http.MethodPost, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "SETTLEMENT_ALREADY_APPROVED", response.Error.Code)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockSettlementService)

		req, _ := http.NewRequest(http.MethodPost, "/trips/not-a-uuid/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ComputeSettlement", mock.Anything, mock.Anything)
	})
}

func TestSettlementHandler_Get(t *testing.T) {
	logger := newTestLogger()

	newRouter := func(mockService *MockSettlementService) *gin.Engine {
		handler := NewSettlementHandler(logger, mockService)
		router := setupTestRouter()
		router.GET("/trips/:id/settlement", handler.Get)
		return router
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		approvedAt := time.Now().UTC()
		stl := settlement.NewPending(tripID, 1000, 930, 50, 20)
		stl.Status = shared.SettlementStatusApproved
		stl.ApprovedAt = &approvedAt
		mockService.On("GetSettlement", mock.Anything, tripID).Return(stl, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body SettlementResponse
		decodeResponse(t, rr, &body)
		assert.Equal(t, "APPROVED", body.Status)
		assert.Equal(t, approvedAt.Format(time.RFC3339), body.ApprovedAt)
	})

	t.Run("NotComputedYet", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("GetSettlement", mock.Anything, tripID).
			Return(nil, settlement.ErrSettlementNotFound{TripID: tripID}).Once()

		req, _ := http.NewRequest(http.MethodGet, "/trips/"+tripID.String()+"/settlement", nil)
		rr := httptest.NewRecorder()
		newRouter(mockService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSettlementHandler_Approve(t *testing.T) {
	logger := newTestLogger()

	newRouter := func(mockService *MockSettlementService) *gin.Engine {
		handler := NewSettlementHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/trips/:id/settlement/approve", handler.Approve)
		return router
	}

	approverID := uuid.New()
	requestBody := ApproveSettlementRequest{
		ApproverWalletID: approverID.String(),
		Pin:              "4321",
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		approvedAt := time.Now().UTC()
		stl := settlement.NewPending(tripID, 1000, 930, 50, 20)
		stl.Status = shared.SettlementStatusApproved
		stl.ApprovedAt = &approvedAt
		mockService.On("ApproveSettlement", mock.Anything, mock.MatchedBy(func(req fares.ApprovalRequest) bool {
			return req.TripID == tripID &&
				req.ApproverWalletID == approverID &&
				req.Pin == "4321"
		})).Return(stl, nil).Once()

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", requestBody)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body SettlementResponse
		decodeResponse(t, rr, &body)
		assert.Equal(t, "APPROVED", body.Status)
		assert.NotEmpty(t, body.ApprovedAt)

		mockService.AssertExpectations(t)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ApproveSettlement", mock.Anything, mock.Anything).
			Return(nil, fares.ErrUnauthorized{WalletID: approverID}).Once()

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", requestBody)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "UNAUTHORIZED", response.Error.Code)
	})

	t.Run("TooManyAttempts", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ApproveSettlement", mock.Anything, mock.Anything).
			Return(nil, pin.ErrTooManyAttempts{WalletID: approverID}).Once()

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", requestBody)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "TOO_MANY_ATTEMPTS", response.Error.Code)
	})

	t.Run("NoComputedSettlement", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ApproveSettlement", mock.Anything, mock.Anything).
			Return(nil, settlement.ErrSettlementNotFound{TripID: tripID}).Once()

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", requestBody)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		mockService.On("ApproveSettlement", mock.Anything, mock.Anything).
			Return(nil, settlement.ErrAlreadyApproved{TripID: tripID}).Once()

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", requestBody)

		assert.Equal(t, http.StatusConflict, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "SETTLEMENT_ALREADY_APPROVED", response.Error.Code)
	})

	t.Run("MissingPin", func(t *testing.T) {
		mockService := new(MockSettlementService)
		tripID := uuid.New()
		body := ApproveSettlementRequest{ApproverWalletID: approverID.String()}

		rr := postJSON(t, newRouter(mockService), "/trips/"+tripID.String()+"/settlement/approve", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ApproveSettlement", mock.Anything, mock.Anything)
	})
}

var _ service.SettlementService = (*MockSettlementService)(nil)
