package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/purchase"
	"github.com/movaapp/mova-backend/internal/domain/settlement"
	"github.com/movaapp/mova-backend/internal/domain/trip"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/fares"
	"github.com/movaapp/mova-backend/internal/pin"
	"github.com/movaapp/mova-backend/internal/platform/provider"
	"github.com/movaapp/mova-backend/internal/transfer"
	"github.com/movaapp/mova-backend/internal/vas"
)

// respondDomainError translates a service-layer error into the stable HTTP
// status and error code for that failure. Every domain outcome a client can
// act on has its own code; anything unrecognized is logged here and hidden
// behind a generic 500, because its message was not written for clients.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount) || errors.Is(err, vas.ErrAmountOutOfRange{}):
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, vas.ErrInvalidRecipient{}) || errors.Is(err, transfer.ErrSelfTransfer):
		RespondWithError(c, http.StatusBadRequest, "INVALID_RECIPIENT", err.Error())
	case errors.Is(err, vas.ErrUnknownCategory{}):
		RespondWithError(c, http.StatusBadRequest, "UNKNOWN_CATEGORY", err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		RespondWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error())

	case errors.Is(err, idempotency.ErrDuplicateInFlight{}):
		RespondWithError(c, http.StatusConflict, "DUPLICATE_IN_FLIGHT", "An identical request is still being processed")
	case errors.Is(err, idempotency.ErrKeyReuseMismatch{}):
		RespondWithError(c, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", err.Error())

	case errors.Is(err, provider.ErrRejected{}):
		RespondWithError(c, http.StatusBadGateway, "PROVIDER_REJECTED", err.Error())
	case errors.Is(err, vas.ErrOutcomeUnknown{}):
		RespondWithError(c, http.StatusGatewayTimeout, "PROVIDER_AMBIGUOUS",
			"The provider outcome is not yet known; do not retry, the request will be reconciled")
	case errors.Is(err, vas.ErrCommitFailure{}):
		RespondWithError(c, http.StatusInternalServerError, "LEDGER_COMMIT_FAILURE",
			"The purchase was accepted but could not be recorded; it has been flagged for reconciliation")

	case errors.Is(err, settlement.ErrAlreadyApproved{}):
		RespondWithError(c, http.StatusConflict, "SETTLEMENT_ALREADY_APPROVED", err.Error())
	case errors.Is(err, fares.ErrCapacityNotReached{}):
		RespondWithError(c, http.StatusUnprocessableEntity, "CAPACITY_NOT_REACHED", err.Error())
	case errors.Is(err, fares.ErrUnauthorized{}):
		RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Settlement approval was not authorized")
	case errors.Is(err, pin.ErrTooManyAttempts{}):
		RespondWithError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error())

	case errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, trip.ErrTripNotFound{}),
		errors.Is(err, settlement.ErrSettlementNotFound{}),
		errors.Is(err, purchase.ErrPurchaseNotFound{}),
		errors.Is(err, ledger.ErrTransactionNotFound{}):
		RespondNotFound(c, err.Error())

	default:
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
