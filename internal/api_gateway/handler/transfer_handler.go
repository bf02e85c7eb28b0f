package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/api_gateway/middleware"
	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/engine"
)

// TransferHandler handles money movement HTTP requests
type TransferHandler struct {
	engine engine.Service
	logger *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, svc engine.Service) *TransferHandler {
	return &TransferHandler{
		engine: svc,
		logger: logger,
	}
}

// Transfer handles POST /api/v1/transfers
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	principal := middleware.GetPrincipalID(c)
	ctx := shared.WithCorrelationID(c.Request.Context(), middleware.GetCorrelationID(c))

	result, err := h.engine.Transfer(ctx, principal, req.FromAccount, req.ToAccount, amount, req.Description)
	if err != nil {
		h.logger.Warn("transfer rejected",
			"from", req.FromAccount,
			"to", req.ToAccount,
			"error", err,
		)
		RespondWithDomainError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusOK, OperationResponse{
		Transaction: mapTransactionToResponse(result.Transaction),
		NewBalance:  result.NewBalance.StringFixed(2),
	})
}

// Deposit handles POST /api/v1/deposits
func (h *TransferHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	ctx := shared.WithCorrelationID(c.Request.Context(), middleware.GetCorrelationID(c))

	result, err := h.engine.Deposit(ctx, req.ToAccount, amount, req.Description)
	if err != nil {
		h.logger.Warn("deposit rejected", "to", req.ToAccount, "error", err)
		RespondWithDomainError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusOK, OperationResponse{
		Transaction: mapTransactionToResponse(result.Transaction),
		NewBalance:  result.NewBalance.StringFixed(2),
	})
}

// Withdraw handles POST /api/v1/withdrawals
func (h *TransferHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	principal := middleware.GetPrincipalID(c)
	ctx := shared.WithCorrelationID(c.Request.Context(), middleware.GetCorrelationID(c))

	result, err := h.engine.Withdraw(ctx, principal, req.FromAccount, amount, req.Description)
	if err != nil {
		h.logger.Warn("withdrawal rejected", "from", req.FromAccount, "error", err)
		RespondWithDomainError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusOK, OperationResponse{
		Transaction: mapTransactionToResponse(result.Transaction),
		NewBalance:  result.NewBalance.StringFixed(2),
	})
}

// parseAmount parses a decimal amount string, responding with 400 on
// malformed input. Range and precision checks belong to the engine.
func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", "Invalid amount: "+raw)
		return decimal.Zero, false
	}
	return amount, true
}
