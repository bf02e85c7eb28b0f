package account

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines account registry persistence operations
type Repository interface {
	// Create reserves the account's number and stores the record as one
	// atomic compare-and-insert. Returns ErrDuplicateAccountNumber if the
	// number is already taken.
	Create(ctx context.Context, acc *Account) error

	// GetByNumber retrieves an account by its number.
	// Returns ErrAccountNotFound if no such account exists.
	GetByNumber(ctx context.Context, number string) (*Account, error)

	// ListByOwner returns the owner's accounts in creation order.
	ListByOwner(ctx context.Context, ownerID string) ([]*Account, error)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	Number string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.Number
}

// Is matches any ErrAccountNotFound when the target carries no number.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.Number == "" || t.Number == e.Number
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	Number string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account number already exists: " + e.Number
}

func (e ErrDuplicateAccountNumber) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccountNumber)
	if !ok {
		return false
	}
	return t.Number == "" || t.Number == e.Number
}

// ErrAccountInactive indicates an operation against a deactivated account
type ErrAccountInactive struct {
	Number string
}

func (e ErrAccountInactive) Error() string {
	return "account is inactive: " + e.Number
}

// ErrInvalidAccountType indicates an unrecognized account type
type ErrInvalidAccountType struct {
	Type string
}

func (e ErrInvalidAccountType) Error() string {
	return "invalid account type: " + e.Type
}

// ErrNegativeDeposit indicates a negative opening deposit
type ErrNegativeDeposit struct {
	Amount decimal.Decimal
}

func (e ErrNegativeDeposit) Error() string {
	return "initial deposit cannot be negative: " + e.Amount.String()
}

// ErrSubCentDeposit indicates an opening deposit finer than cents
type ErrSubCentDeposit struct {
	Amount decimal.Decimal
}

func (e ErrSubCentDeposit) Error() string {
	return "initial deposit cannot be finer than cents: " + e.Amount.String()
}

// ErrExhaustedRetries indicates account number generation gave up after
// repeatedly colliding with existing numbers
type ErrExhaustedRetries struct {
	Attempts int
}

func (e ErrExhaustedRetries) Error() string {
	return "exhausted account number generation attempts"
}
