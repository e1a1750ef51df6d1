package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/transfer"
)

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, req *transfer.Request) (*transfer.Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Receipt), args.Error(1)
}

func TestTransferHandler_Create(t *testing.T) {
	logger := newTestLogger()

	newRouter := func(mockService *MockTransferService) *gin.Engine {
		handler := NewTransferHandler(logger, mockService)
		router := setupTestRouter()
		router.POST("/transfers", handler.Create)
		return router
	}

	senderID := uuid.New()
	receiverID := uuid.New()
	requestBody := CreateTransferRequest{
		SenderWalletID:   senderID.String(),
		ReceiverWalletID: receiverID.String(),
		Amount:           25_000,
		Narration:        "lunch money",
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransferService)
		receipt := &transfer.Receipt{
			TransferID:       uuid.New(),
			SenderWalletID:   senderID,
			ReceiverWalletID: receiverID,
			Amount:           25_000,
			Narration:        "lunch money",
			CreatedAt:        time.Now().UTC(),
		}
		mockService.On("Transfer", mock.Anything, mock.MatchedBy(func(req *transfer.Request) bool {
			return req.SenderWalletID == senderID &&
				req.ReceiverWalletID == receiverID &&
				req.Amount == 25_000 &&
				req.Narration == "lunch money"
		})).Return(receipt, nil).Once()

		rr := postJSON(t, newRouter(mockService), "/transfers", requestBody)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var body TransferResponse
		decodeResponse(t, rr, &body)
		assert.Equal(t, receipt.TransferID.String(), body.TransferID)
		assert.Equal(t, senderID.String(), body.SenderWalletID)
		assert.Equal(t, receiverID.String(), body.ReceiverWalletID)
		assert.Equal(t, int64(25_000), body.Amount)

		mockService.AssertExpectations(t)
	})

	t.Run("ReplayReturnsOK", func(t *testing.T) {
		mockService := new(MockTransferService)
		receipt := &transfer.Receipt{
			TransferID:       uuid.New(),
			SenderWalletID:   senderID,
			ReceiverWalletID: receiverID,
			Amount:           25_000,
			CreatedAt:        time.Now().UTC(),
			Replayed:         true,
		}
		mockService.On("Transfer", mock.Anything, mock.Anything).Return(receipt, nil).Once()

		rr := postJSON(t, newRouter(mockService), "/transfers", requestBody)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockTransferService)

		rr := postJSON(t, newRouter(mockService), "/transfers", `{"invalid`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		mockService := new(MockTransferService)
		body := requestBody
		body.Amount = 0

		rr := postJSON(t, newRouter(mockService), "/transfers", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})

	t.Run("SelfTransfer", func(t *testing.T) {
		mockService := new(MockTransferService)
		mockService.On("Transfer", mock.Anything, mock.Anything).
			Return(nil, transfer.ErrSelfTransfer).Once()

		body := requestBody
		body.ReceiverWalletID = body.SenderWalletID
		rr := postJSON(t, newRouter(mockService), "/transfers", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "INVALID_RECIPIENT", response.Error.Code)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		mockService := new(MockTransferService)
		mockService.On("Transfer", mock.Anything, mock.Anything).
			Return(nil, wallet.ErrInsufficientFunds).Once()

		rr := postJSON(t, newRouter(mockService), "/transfers", requestBody)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "INSUFFICIENT_FUNDS", response.Error.Code)
	})

	t.Run("SenderNotFound", func(t *testing.T) {
		mockService := new(MockTransferService)
		mockService.On("Transfer", mock.Anything, mock.Anything).
			Return(nil, wallet.ErrWalletNotFound{WalletID: senderID}).Once()

		rr := postJSON(t, newRouter(mockService), "/transfers", requestBody)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("DuplicateInFlight", func(t *testing.T) {
		mockService := new(MockTransferService)
		mockService.On("Transfer", mock.Anything, mock.Anything).
			Return(nil, idempotency.ErrDuplicateInFlight{Key: "k"}).Once()

		rr := postJSON(t, newRouter(mockService), "/transfers", requestBody)

		assert.Equal(t, http.StatusConflict, rr.Code)
		response := decodeResponse(t, rr, nil)
		require.NotNil(t, response.Error)
		assert.Equal(t, "DUPLICATE_IN_FLIGHT", response.Error.Code)
	})
}

var _ service.TransferService = (*MockTransferService)(nil)
