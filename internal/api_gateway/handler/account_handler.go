// Package handler implements the HTTP handlers of the API gateway.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/api_gateway/middleware"
	"github.com/smartbank-ledger/internal/domain/account"
)

// AccountRegistry defines the account operations the gateway depends on
type AccountRegistry interface {
	OpenAccount(ctx context.Context, ownerID string, accountType account.Type, initialDeposit decimal.Decimal) (*account.Account, error)
	FindByNumber(ctx context.Context, number string) (*account.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error)
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	registry AccountRegistry
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, registry AccountRegistry) *AccountHandler {
	return &AccountHandler{
		registry: registry,
		logger:   logger,
	}
}

// Open handles POST /api/v1/accounts. The authenticated principal becomes
// the owner of the new account.
func (h *AccountHandler) Open(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = decimal.NewFromString(req.InitialDeposit)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid initial deposit: "+req.InitialDeposit)
			return
		}
	}

	principal := middleware.GetPrincipalID(c)

	acc, err := h.registry.OpenAccount(c.Request.Context(), principal, account.Type(req.Type), initialDeposit)
	if err != nil {
		h.logger.Error("failed to open account",
			"owner_id", principal,
			"type", req.Type,
			"error", err,
		)
		RespondWithDomainError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, mapAccountToResponse(acc))
}

// Get handles GET /api/v1/accounts/:number. Owners see their own
// accounts; admins see any account.
func (h *AccountHandler) Get(c *gin.Context) {
	number := c.Param("number")

	acc, err := h.registry.FindByNumber(c.Request.Context(), number)
	if err != nil {
		RespondWithDomainError(c, err)
		return
	}

	// A foreign account reads the same as a missing one, so account
	// numbers cannot be probed.
	if acc.OwnerID != middleware.GetPrincipalID(c) && !middleware.IsAdmin(c) {
		RespondWithDomainError(c, account.ErrAccountNotFound{Number: number})
		return
	}

	RespondWithSuccess(c, http.StatusOK, mapAccountToResponse(acc))
}

// ListForOwner handles GET /api/v1/admin/owners/:owner_id/accounts, the
// back-office view of an arbitrary owner's accounts. Routed behind
// RequireAdmin.
func (h *AccountHandler) ListForOwner(c *gin.Context) {
	ownerID := c.Param("owner_id")

	accounts, err := h.registry.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list accounts", "owner_id", ownerID, "error", err)
		RespondWithDomainError(c, err)
		return
	}

	resp := AccountListResponse{Accounts: make([]AccountResponse, 0, len(accounts))}
	for _, acc := range accounts {
		resp.Accounts = append(resp.Accounts, mapAccountToResponse(acc))
	}

	RespondWithSuccess(c, http.StatusOK, resp)
}

// List handles GET /api/v1/accounts, returning the caller's accounts in
// creation order.
func (h *AccountHandler) List(c *gin.Context) {
	principal := middleware.GetPrincipalID(c)

	accounts, err := h.registry.ListByOwner(c.Request.Context(), principal)
	if err != nil {
		h.logger.Error("failed to list accounts", "owner_id", principal, "error", err)
		RespondWithDomainError(c, err)
		return
	}

	resp := AccountListResponse{Accounts: make([]AccountResponse, 0, len(accounts))}
	for _, acc := range accounts {
		resp.Accounts = append(resp.Accounts, mapAccountToResponse(acc))
	}

	RespondWithSuccess(c, http.StatusOK, resp)
}
