package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
	"github.com/smartbank-ledger/internal/platform/persistence"
)

// LedgerStore implements ledger.Store for PostgreSQL. Every mutation runs
// in its own transaction with SELECT ... FOR UPDATE row locks; two-account
// transfers lock rows in lexicographic number order so opposing transfers
// over the same pair cannot deadlock.
type LedgerStore struct {
	db     persistence.DB
	logger *slog.Logger
}

// NewLedgerStore creates a PostgreSQL ledger store.
func NewLedgerStore(logger *slog.Logger, db *persistence.PostgresDB) *LedgerStore {
	return &LedgerStore{
		db:     db.Pool(),
		logger: logger,
	}
}

var _ ledger.Store = (*LedgerStore)(nil)

// GetBalance returns the account's current balance.
func (s *LedgerStore) GetBalance(ctx context.Context, number string) (decimal.Decimal, error) {
	query := `SELECT balance::text FROM accounts WHERE number = $1`

	var raw string
	err := s.db.QueryRow(ctx, query, number).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{Number: number}
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance %q: %w", raw, err)
	}
	return balance, nil
}

// ApplyDelta adds delta to the account's balance inside a transaction,
// rejecting any mutation that would leave it negative.
func (s *LedgerStore) ApplyDelta(ctx context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		balance, err := lockBalance(ctx, tx, number)
		if err != nil {
			return err
		}

		next := balance.Add(delta)
		if next.IsNegative() {
			return ledger.ErrInsufficientFunds{Number: number}
		}

		if err := setBalance(ctx, tx, number, next); err != nil {
			return err
		}
		newBalance = next
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// ApplyTransfer debits from and credits to as one transaction, with both
// rows locked for its duration.
func (s *LedgerStore) ApplyTransfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	return persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		first, second := from, to
		if to < from {
			first, second = to, from
		}

		balances := make(map[string]decimal.Decimal, 2)
		for _, number := range []string{first, second} {
			balance, err := lockBalance(ctx, tx, number)
			if err != nil {
				return err
			}
			balances[number] = balance
		}

		if balances[from].LessThan(amount) {
			return ledger.ErrInsufficientFunds{Number: from}
		}

		if err := setBalance(ctx, tx, from, balances[from].Sub(amount)); err != nil {
			return err
		}
		return setBalance(ctx, tx, to, balances[to].Add(amount))
	})
}

func lockBalance(ctx context.Context, tx pgx.Tx, number string) (decimal.Decimal, error) {
	query := `SELECT balance::text FROM accounts WHERE number = $1 FOR UPDATE`

	var raw string
	err := tx.QueryRow(ctx, query, number).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{Number: number}
		}
		return decimal.Zero, fmt.Errorf("failed to lock account %s: %w", number, err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance %q: %w", raw, err)
	}
	return balance, nil
}

func setBalance(ctx context.Context, tx pgx.Tx, number string, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1 WHERE number = $2`

	result, err := tx.Exec(ctx, query, balance.StringFixed(2), number)
	if err != nil {
		return fmt.Errorf("failed to update balance for %s: %w", number, err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{Number: number}
	}
	return nil
}
