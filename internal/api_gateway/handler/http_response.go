package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/domain/transaction"
	"github.com/smartbank-ledger/internal/limits"
)

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries error details in API responses
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response with the given status and payload
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response with the given status and code
func RespondWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// RespondWithDomainError maps a domain error to its HTTP status and error
// code. Unknown errors map to 500 with a generic message so internal
// details never leak to clients.
func RespondWithDomainError(c *gin.Context, err error) {
	var (
		notFound    account.ErrAccountNotFound
		inactive    account.ErrAccountInactive
		invalidType account.ErrInvalidAccountType
		negDeposit  account.ErrNegativeDeposit
		subCent     account.ErrSubCentDeposit
		exhausted   account.ErrExhaustedRetries
		txnNotFound transaction.ErrTransactionNotFound
	)

	switch {
	case errors.Is(err, shared.ErrInvalidAmount):
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, shared.ErrSelfTransfer):
		RespondWithError(c, http.StatusBadRequest, "SELF_TRANSFER", err.Error())
	case errors.As(err, &invalidType):
		RespondWithError(c, http.StatusBadRequest, "INVALID_ACCOUNT_TYPE", err.Error())
	case errors.As(err, &negDeposit):
		RespondWithError(c, http.StatusBadRequest, "INVALID_INITIAL_DEPOSIT", err.Error())
	case errors.As(err, &subCent):
		RespondWithError(c, http.StatusBadRequest, "INVALID_INITIAL_DEPOSIT", err.Error())
	case errors.As(err, &notFound):
		RespondWithError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.As(err, &txnNotFound):
		RespondWithError(c, http.StatusNotFound, "TRANSACTION_NOT_FOUND", err.Error())
	case errors.As(err, &inactive):
		RespondWithError(c, http.StatusConflict, "ACCOUNT_INACTIVE", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds{}):
		RespondWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, limits.ErrLimitExceeded{}):
		RespondWithError(c, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED", err.Error())
	case errors.As(err, &exhausted):
		// Transient: number generation can succeed on a later attempt.
		RespondWithError(c, http.StatusServiceUnavailable, "EXHAUSTED_RETRIES", err.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
	}
}
