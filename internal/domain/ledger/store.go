// Package ledger defines the contract for the single source of truth for
// monetary state: a thread-safe mapping from account number to balance.
// All balance mutations flow through Store; no caller sets a balance
// directly outside account creation.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the authoritative balance store.
//
// Implementations must make every operation linearizable: for any two
// operations touching the same account, the observable effect is consistent
// with some total order of the two.
type Store interface {
	// GetBalance returns the current balance of the account.
	// Returns account.ErrAccountNotFound if the account does not exist.
	GetBalance(ctx context.Context, number string) (decimal.Decimal, error)

	// ApplyDelta atomically adds delta (which may be negative) to the
	// account's balance and returns the new balance. Fails with
	// ErrInsufficientFunds if the resulting balance would be negative,
	// leaving the balance unchanged.
	ApplyDelta(ctx context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error)

	// ApplyTransfer atomically debits from by amount and credits to by
	// amount as one all-or-nothing unit: either both deltas land or
	// neither does, even under concurrent operations touching the same
	// accounts. Fails with ErrInsufficientFunds if the source balance is
	// less than amount at apply time.
	ApplyTransfer(ctx context.Context, from, to string, amount decimal.Decimal) error
}

// ErrInsufficientFunds indicates a debit that would drive a balance negative
type ErrInsufficientFunds struct {
	Number string
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds in account: " + e.Number
}

// Is matches any ErrInsufficientFunds when the target carries no number.
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	return t.Number == "" || t.Number == e.Number
}
