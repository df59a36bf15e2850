package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
)

// outcomeAlreadyProcessed answers a repeated approve or reject.
const outcomeAlreadyProcessed = "already_processed"

// errorStatus maps domain errors to an HTTP status and error code.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{shared.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
	{account.ErrInvalidPin, http.StatusUnauthorized, "INVALID_PIN"},
	{account.ErrPinNotConfigured, http.StatusPreconditionFailed, "PIN_NOT_CONFIGURED"},
	{account.ErrPinLocked{}, http.StatusTooManyRequests, "PIN_LOCKED"},
	{account.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
	{ledger.ErrRecipientNotFound, http.StatusNotFound, "RECIPIENT_NOT_FOUND"},
	{account.ErrAccountNotFound{}, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{request.ErrRequestNotFound{}, http.StatusNotFound, "REQUEST_NOT_FOUND"},
	{notification.ErrNotificationNotFound{}, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
	{catalog.ErrCatalogEntryNotFound{}, http.StatusNotFound, "CATALOG_ENTRY_NOT_FOUND"},
	{account.ErrDuplicateAccount{}, http.StatusConflict, "DUPLICATE_ACCOUNT"},
}

// RespondWithServiceError writes the response for an error returned by a service. It is
// the single place where service errors are logged.
func RespondWithServiceError(c *gin.Context, logger *slog.Logger, err error) {
	logger = logger.With("correlation_id", middleware.GetCorrelationID(c), "route", c.FullPath())

	if errors.Is(err, request.ErrAlreadyProcessed{}) {
		logger.Info("Decision on an already processed request", "error", err)
		RespondOK(c, gin.H{"outcome": outcomeAlreadyProcessed})
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			logger.Warn("Request rejected", "status", m.status, "error", err)
			RespondWithError(c, m.status, m.code, publicMessage(err))
			return
		}
	}

	if errors.Is(err, shared.ErrStoreUnavailable) {
		logger.Error("Store unavailable", "error", err)
		RespondServiceUnavailable(c)
		return
	}

	logger.Error("Unhandled service error", "error", err)
	RespondInternalError(c)
}

func publicMessage(err error) string {
	var v shared.ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	var dup account.ErrDuplicateAccount
	if errors.As(err, &dup) {
		return dup.Error()
	}
	var locked account.ErrPinLocked
	if errors.As(err, &locked) {
		return "Too many wrong PINs, try again after " + locked.Until.UTC().Format(time.RFC3339)
	}
	switch {
	case errors.Is(err, account.ErrInvalidPin):
		return "The PIN is incorrect"
	case errors.Is(err, account.ErrPinNotConfigured):
		return "Set a transaction PIN first"
	case errors.Is(err, account.ErrInsufficientFunds):
		return "Insufficient balance"
	case errors.Is(err, ledger.ErrRecipientNotFound):
		return "Recipient not found"
	}
	return "Resource not found"
}
