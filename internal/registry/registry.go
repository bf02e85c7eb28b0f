// Package registry implements the account registry: it owns account
// creation, generates unique account numbers, and answers account lookups.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/limits"
)

const (
	// DefaultNumberPrefix is the fixed alphabetic prefix of every account number.
	DefaultNumberPrefix = "SB"

	// DefaultMaxAttempts bounds the number generation retry loop.
	DefaultMaxAttempts = 20

	numberSuffixDigits = 12
)

// Registry generates account numbers and manages account records through
// the underlying repository.
type Registry struct {
	repo        account.Repository
	logger      *slog.Logger
	prefix      string
	maxAttempts int
}

// Option configures a Registry.
type Option func(*Registry)

// WithNumberPrefix overrides the account number prefix.
func WithNumberPrefix(prefix string) Option {
	return func(r *Registry) { r.prefix = prefix }
}

// WithMaxAttempts overrides the generation retry bound.
func WithMaxAttempts(attempts int) Option {
	return func(r *Registry) { r.maxAttempts = attempts }
}

// New creates a Registry over the given repository.
func New(logger *slog.Logger, repo account.Repository, opts ...Option) *Registry {
	r := &Registry{
		repo:        repo,
		logger:      logger,
		prefix:      DefaultNumberPrefix,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenAccount creates a new account for ownerID with the given opening
// deposit. The daily limit comes from the static policy table for the
// account type. Number generation retries on collision; the check and the
// reservation are one atomic compare-and-insert in the repository, so two
// concurrent openings can never both claim the same number.
func (r *Registry) OpenAccount(ctx context.Context, ownerID string, accountType account.Type, initialDeposit decimal.Decimal) (*account.Account, error) {
	dailyLimit, err := limits.DailyLimitFor(accountType)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		number := r.generateNumber()

		acc, err := account.New(number, ownerID, accountType, initialDeposit, dailyLimit)
		if err != nil {
			return nil, err
		}

		err = r.repo.Create(ctx, acc)
		if err == nil {
			r.logger.Info("account opened",
				"number", acc.Number,
				"owner_id", ownerID,
				"type", string(accountType),
				"balance", acc.Balance.StringFixed(2),
			)
			return acc, nil
		}

		var dup account.ErrDuplicateAccountNumber
		if !errors.As(err, &dup) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		r.logger.Warn("account number collision, retrying",
			"number", number,
			"attempt", attempt,
		)
	}

	r.logger.Error("account number generation exhausted", "attempts", r.maxAttempts)
	return nil, account.ErrExhaustedRetries{Attempts: r.maxAttempts}
}

// FindByNumber retrieves an account by its number.
func (r *Registry) FindByNumber(ctx context.Context, number string) (*account.Account, error) {
	return r.repo.GetByNumber(ctx, number)
}

// ListByOwner returns the owner's accounts in creation order.
func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error) {
	return r.repo.ListByOwner(ctx, ownerID)
}

// generateNumber draws a uniform random fixed-width numeric suffix.
func (r *Registry) generateNumber() string {
	const low = 100000000000 // smallest 12-digit number
	const span = 900000000000
	return fmt.Sprintf("%s%0*d", r.prefix, numberSuffixDigits, low+rand.Int64N(span))
}
