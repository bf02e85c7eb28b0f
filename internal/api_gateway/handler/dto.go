package handler

import (
	"time"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/transaction"
)

// OpenAccountRequest represents a request to open a new account
type OpenAccountRequest struct {
	Type           string `json:"type" binding:"required,oneof=SAVINGS CURRENT FIXED_DEPOSIT"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	Number     string `json:"number"`
	OwnerID    string `json:"owner_id"`
	Type       string `json:"type"`
	Balance    string `json:"balance"`
	DailyLimit string `json:"daily_limit"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
}

// AccountListResponse represents a list of accounts in API responses
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// TransferRequest represents a request to move money between two accounts
type TransferRequest struct {
	FromAccount string `json:"from_account" binding:"required"`
	ToAccount   string `json:"to_account" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// DepositRequest represents a request to credit an account
type DepositRequest struct {
	ToAccount   string `json:"to_account" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// WithdrawRequest represents a request to debit the caller's account
type WithdrawRequest struct {
	FromAccount string `json:"from_account" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TransactionResponse represents an audit trail entry in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	FromAccount   string `json:"from_account,omitempty"`
	ToAccount     string `json:"to_account,omitempty"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// TransactionListResponse represents a list of transactions in API responses
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// OperationResponse represents the outcome of a completed monetary operation
type OperationResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  string              `json:"new_balance"`
}

// ListParams represents query parameters for transaction listing
type ListParams struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		Number:     acc.Number,
		OwnerID:    acc.OwnerID,
		Type:       string(acc.Type),
		Balance:    acc.Balance.StringFixed(2),
		DailyLimit: acc.DailyLimit.StringFixed(2),
		Active:     acc.Active,
		CreatedAt:  acc.CreatedAt.Format(time.RFC3339),
	}
}

// mapTransactionToResponse maps an audit trail entry to a response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: txn.TransactionID.String(),
		Amount:        txn.Amount.StringFixed(2),
		Type:          string(txn.Type),
		Description:   txn.Description,
		Status:        string(txn.Status),
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.FromAccount != nil {
		resp.FromAccount = *txn.FromAccount
	}
	if txn.ToAccount != nil {
		resp.ToAccount = *txn.ToAccount
	}
	return resp
}
