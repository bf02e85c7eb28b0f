// Package postgres provides the PostgreSQL backend for the ledger:
// account storage with atomic balance mutations and the transactional
// outbox used for audit event publishing.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/platform/persistence"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// AccountRepository implements account.Repository for PostgreSQL.
// Uniqueness of account numbers is enforced by the primary key, so the
// number reservation is a single atomic INSERT.
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a PostgreSQL account repository over the pool.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

var _ account.Repository = (*AccountRepository)(nil)

// WithTx returns a repository bound to the transaction, so account writes
// can share a unit of work with other repositories.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the account, relying on the primary key to reject
// duplicate numbers atomically.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (number, owner_id, type, balance, daily_limit, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.Number,
		acc.OwnerID,
		string(acc.Type),
		acc.Balance.StringFixed(2),
		acc.DailyLimit.StringFixed(2),
		acc.Active,
		acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return account.ErrDuplicateAccountNumber{Number: acc.Number}
		}
		r.logger.Error("failed to create account", "number", acc.Number, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByNumber retrieves an account by its number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	query := `
		SELECT number, owner_id, type, balance::text, daily_limit::text, active, created_at
		FROM accounts
		WHERE number = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Number: number}
		}
		r.logger.Error("failed to get account", "number", number, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// ListByOwner returns the owner's accounts in creation order.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error) {
	query := `
		SELECT number, owner_id, type, balance::text, daily_limit::text, active, created_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at ASC, number ASC
	`

	rows, err := r.querier.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("failed to list accounts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// scanAccount decodes one account row. Balances travel as text so the
// NUMERIC values reach decimal.Decimal without a float detour.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acc        account.Account
		accType    string
		balance    string
		dailyLimit string
	)

	err := row.Scan(
		&acc.Number,
		&acc.OwnerID,
		&accType,
		&balance,
		&dailyLimit,
		&acc.Active,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Type = account.Type(accType)
	if acc.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	if acc.DailyLimit, err = decimal.NewFromString(dailyLimit); err != nil {
		return nil, fmt.Errorf("invalid daily limit %q: %w", dailyLimit, err)
	}

	return &acc, nil
}
