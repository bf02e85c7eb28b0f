package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type defines the recognized account categories
type Type string

const (
	TypeSavings      Type = "SAVINGS"
	TypeCurrent      Type = "CURRENT"
	TypeFixedDeposit Type = "FIXED_DEPOSIT"
)

// Valid reports whether t is one of the recognized account types.
// Unrecognized types are rejected, never silently defaulted.
func (t Type) Valid() bool {
	switch t {
	case TypeSavings, TypeCurrent, TypeFixedDeposit:
		return true
	}
	return false
}

// Account represents a bank account in the ledger.
// Number is immutable and globally unique for the lifetime of the system.
// Balance is mutated only through the ledger store's delta operations.
type Account struct {
	Number     string          `json:"number"`
	OwnerID    string          `json:"owner_id"`
	Type       Type            `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	DailyLimit decimal.Decimal `json:"daily_limit"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// New creates an account record with the given opening balance.
// The caller supplies a reserved unique number and the daily limit
// applicable to the account type.
func New(number, ownerID string, accountType Type, initialDeposit, dailyLimit decimal.Decimal) (*Account, error) {
	if !accountType.Valid() {
		return nil, ErrInvalidAccountType{Type: string(accountType)}
	}
	if initialDeposit.IsNegative() {
		return nil, ErrNegativeDeposit{Amount: initialDeposit}
	}
	if initialDeposit.Exponent() < -2 {
		return nil, ErrSubCentDeposit{Amount: initialDeposit}
	}

	return &Account{
		Number:     number,
		OwnerID:    ownerID,
		Type:       accountType,
		Balance:    initialDeposit,
		DailyLimit: dailyLimit,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CanDebit reports whether the account holds at least amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
