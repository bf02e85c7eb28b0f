package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartbank-ledger/internal/api_gateway/middleware"
	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/transaction"
)

// TransactionHandler handles audit trail query HTTP requests
type TransactionHandler struct {
	registry AccountRegistry
	log      transaction.Log
	logger   *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, registry AccountRegistry, log transaction.Log) *TransactionHandler {
	return &TransactionHandler{
		registry: registry,
		log:      log,
		logger:   logger,
	}
}

// Get handles GET /api/v1/transactions/:id. Callers may only read entries
// that reference one of their own accounts; admins may read any entry.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid transaction ID: "+c.Param("id"))
		return
	}

	txn, err := h.log.GetByTransactionID(c.Request.Context(), id)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}

	if !middleware.IsAdmin(c) {
		visible, err := h.referencesCaller(c, txn)
		if err != nil {
			h.logger.Error("failed to resolve transaction visibility",
				"transaction_id", id.String(),
				"error", err,
			)
			RespondWithDomainError(c, err)
			return
		}
		if !visible {
			// Hidden entries read the same as missing ones.
			RespondWithDomainError(c, transaction.ErrTransactionNotFound{TransactionID: id})
			return
		}
	}

	RespondWithSuccess(c, http.StatusOK, mapTransactionToResponse(txn))
}

// ListByAccount handles GET /api/v1/accounts/:number/transactions,
// returning up to ?limit= entries referencing the account, most recent
// first.
func (h *TransactionHandler) ListByAccount(c *gin.Context) {
	number := c.Param("number")

	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters: "+err.Error())
		return
	}

	acc, err := h.registry.FindByNumber(c.Request.Context(), number)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}
	if acc.OwnerID != middleware.GetPrincipalID(c) && !middleware.IsAdmin(c) {
		RespondWithDomainError(c, account.ErrAccountNotFound{Number: number})
		return
	}

	txns, err := h.log.ListRecent(c.Request.Context(), []string{number}, params.Limit)
	if err != nil {
		h.logger.Error("failed to list transactions", "number", number, "error", err)
		RespondWithDomainError(c, err)
		return
	}

	resp := TransactionListResponse{Transactions: make([]TransactionResponse, 0, len(txns))}
	for _, txn := range txns {
		resp.Transactions = append(resp.Transactions, mapTransactionToResponse(txn))
	}

	RespondWithSuccess(c, http.StatusOK, resp)
}

// referencesCaller reports whether the transaction touches any account
// owned by the calling principal.
func (h *TransactionHandler) referencesCaller(c *gin.Context, txn *transaction.Transaction) (bool, error) {
	accounts, err := h.registry.ListByOwner(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		return false, err
	}
	for _, acc := range accounts {
		if txn.References(acc.Number) {
			return true, nil
		}
	}
	return false, nil
}
