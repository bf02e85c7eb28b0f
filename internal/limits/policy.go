// Package limits implements the daily transfer limit policy: a static
// ceiling per account type, evaluated independently for each proposed
// transfer. The policy does not accumulate amounts already transferred
// within a rolling window; each check compares a single proposed amount
// against the account's fixed ceiling.
package limits

import (
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
)

var dailyLimits = map[account.Type]decimal.Decimal{
	account.TypeSavings:      decimal.NewFromInt(50000),
	account.TypeCurrent:      decimal.NewFromInt(100000),
	account.TypeFixedDeposit: decimal.NewFromInt(50000),
}

// DailyLimitFor returns the daily transfer ceiling for the account type.
// Returns ErrInvalidAccountType for unrecognized types; there is no
// silent default.
func DailyLimitFor(accountType account.Type) (decimal.Decimal, error) {
	limit, ok := dailyLimits[accountType]
	if !ok {
		return decimal.Zero, account.ErrInvalidAccountType{Type: string(accountType)}
	}
	return limit, nil
}

// Evaluate checks a proposed transfer amount against the account's daily
// limit. Returns ErrLimitExceeded when the amount is over the ceiling.
func Evaluate(acc *account.Account, amount decimal.Decimal) error {
	if amount.GreaterThan(acc.DailyLimit) {
		return ErrLimitExceeded{Number: acc.Number, Limit: acc.DailyLimit}
	}
	return nil
}

// ErrLimitExceeded indicates a transfer amount over the account's daily limit
type ErrLimitExceeded struct {
	Number string
	Limit  decimal.Decimal
}

func (e ErrLimitExceeded) Error() string {
	return "amount exceeds daily limit " + e.Limit.StringFixed(2) + " for account " + e.Number
}

// Is matches any ErrLimitExceeded when the target carries no number.
func (e ErrLimitExceeded) Is(target error) bool {
	t, ok := target.(ErrLimitExceeded)
	if !ok {
		return false
	}
	return t.Number == "" || t.Number == e.Number
}
