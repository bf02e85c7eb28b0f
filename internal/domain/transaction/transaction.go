package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/shared"
)

// Transaction is one immutable entry in the audit trail. It is created
// exactly once, when a monetary operation's outcome is determined, and
// never mutated afterward.
//
// FromAccount is nil for pure deposits, ToAccount is nil for pure
// withdrawals; a TRANSFER always carries both.
type Transaction struct {
	TransactionID uuid.UUID                `json:"transaction_id"`
	FromAccount   *string                  `json:"from_account,omitempty"`
	ToAccount     *string                  `json:"to_account,omitempty"`
	Amount        decimal.Decimal          `json:"amount"`
	Type          shared.TransactionType   `json:"type"`
	Description   string                   `json:"description,omitempty"`
	Status        shared.TransactionStatus `json:"status"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// NewTransfer builds a COMPLETED transfer entry referencing both endpoints.
func NewTransfer(from, to string, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		TransactionID: uuid.New(),
		FromAccount:   &from,
		ToAccount:     &to,
		Amount:        amount,
		Type:          shared.TransactionTypeTransfer,
		Description:   description,
		Status:        shared.TransactionStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewDeposit builds a COMPLETED deposit entry with no source account.
func NewDeposit(to string, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		TransactionID: uuid.New(),
		ToAccount:     &to,
		Amount:        amount,
		Type:          shared.TransactionTypeDeposit,
		Description:   description,
		Status:        shared.TransactionStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewWithdrawal builds a COMPLETED withdrawal entry with no destination account.
func NewWithdrawal(from string, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		TransactionID: uuid.New(),
		FromAccount:   &from,
		Amount:        amount,
		Type:          shared.TransactionTypeWithdrawal,
		Description:   description,
		Status:        shared.TransactionStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}

// MarkFailed flips a freshly built entry to FAILED with the given reason.
// Only valid before the entry has been appended to the log.
func (t *Transaction) MarkFailed(reason shared.FailureReason) *Transaction {
	t.Status = shared.TransactionStatusFailed
	t.FailureReason = string(reason)
	return t
}

// References reports whether the transaction touches the given account
// number as source or destination.
func (t *Transaction) References(number string) bool {
	if t.FromAccount != nil && *t.FromAccount == number {
		return true
	}
	return t.ToAccount != nil && *t.ToAccount == number
}
