// Package engine implements the transfer engine: the single entry point
// for money movement. Every request passes a fixed validation pipeline,
// then the ledger store applies the balance change atomically, and the
// transaction log records the outcome.
//
// Validation failures are detected before any mutation and leave no trace
// in the audit trail. Failures after validation passed are always
// recorded, success or not.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/domain/transaction"
	"github.com/smartbank-ledger/internal/limits"
)

// Service is the stable money movement contract exposed to callers.
type Service interface {
	// Transfer moves amount from the principal's source account to the
	// destination account as one atomic unit.
	Transfer(ctx context.Context, principal, from, to string, amount decimal.Decimal, description string) (*Result, error)

	// Deposit credits amount to the account.
	Deposit(ctx context.Context, to string, amount decimal.Decimal, description string) (*Result, error)

	// Withdraw debits amount from the principal's account.
	Withdraw(ctx context.Context, principal, from string, amount decimal.Decimal, description string) (*Result, error)
}

// Result describes a completed monetary operation.
type Result struct {
	Transaction *transaction.Transaction
	NewBalance  decimal.Decimal
}

// AuditNotifier receives every recorded transaction for downstream audit
// event publishing. Notification is best-effort: a notifier failure never
// fails the operation that produced the entry.
type AuditNotifier interface {
	TransactionRecorded(ctx context.Context, txn *transaction.Transaction) error
}

// ErrTransferFailed wraps an unexpected failure during the apply step,
// after validation passed. It is never retried automatically: a retry
// could double-apply if the failure occurred post-mutation.
type ErrTransferFailed struct {
	TransactionID uuid.UUID
	Cause         error
}

func (e ErrTransferFailed) Error() string {
	return fmt.Sprintf("transfer %s failed: %v", e.TransactionID, e.Cause)
}

func (e ErrTransferFailed) Unwrap() error { return e.Cause }

// Engine implements Service over an account repository, a ledger store
// and a transaction log.
type Engine struct {
	accounts account.Repository
	store    ledger.Store
	log      transaction.Log
	notifier AuditNotifier // optional
	logger   *slog.Logger
}

// New creates an Engine. notifier may be nil when audit event publishing
// is disabled.
func New(logger *slog.Logger, accounts account.Repository, store ledger.Store, log transaction.Log, notifier AuditNotifier) *Engine {
	return &Engine{
		accounts: accounts,
		store:    store,
		log:      log,
		notifier: notifier,
		logger:   logger,
	}
}

var _ Service = (*Engine)(nil)

// Transfer validates and executes a single transfer. The validation order
// is fixed; the first failing check wins and short-circuits the rest:
// amount, source existence+ownership (collapsed), destination existence,
// funds, daily limit.
func (e *Engine) Transfer(ctx context.Context, principal, from, to string, amount decimal.Decimal, description string) (*Result, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if from == to {
		return nil, shared.ErrSelfTransfer
	}

	// Ownership and existence are one check: a source account owned by
	// someone else reads the same as a missing one.
	src, err := e.accounts.GetByNumber(ctx, from)
	if err != nil || src.OwnerID != principal {
		return nil, account.ErrAccountNotFound{Number: from}
	}
	if !src.Active {
		return nil, account.ErrAccountInactive{Number: from}
	}

	dst, err := e.accounts.GetByNumber(ctx, to)
	if err != nil {
		return nil, account.ErrAccountNotFound{Number: to}
	}
	if !dst.Active {
		return nil, account.ErrAccountInactive{Number: to}
	}

	if !src.CanDebit(amount) {
		return nil, ledger.ErrInsufficientFunds{Number: from}
	}

	if err := limits.Evaluate(src, amount); err != nil {
		return nil, err
	}

	txn := transaction.NewTransfer(from, to, amount, description)
	txn.CorrelationID = shared.CorrelationIDFromContext(ctx)

	if err := e.store.ApplyTransfer(ctx, from, to, amount); err != nil {
		e.logger.Error("transfer apply failed",
			"transaction_id", txn.TransactionID.String(),
			"from", from,
			"to", to,
			"amount", amount.StringFixed(2),
			"error", err,
		)
		e.record(ctx, txn.MarkFailed(failureReasonFor(err)))

		if errors.Is(err, ledger.ErrInsufficientFunds{}) {
			// A concurrent debit drained the source between validation
			// and apply; no partial change is observable.
			return nil, ledger.ErrInsufficientFunds{Number: from}
		}
		return nil, ErrTransferFailed{TransactionID: txn.TransactionID, Cause: err}
	}

	e.record(ctx, txn)

	newBalance, err := e.store.GetBalance(ctx, from)
	if err != nil {
		newBalance = src.Balance.Sub(amount)
	}

	e.logger.Info("transfer completed",
		"transaction_id", txn.TransactionID.String(),
		"from", from,
		"to", to,
		"amount", amount.StringFixed(2),
	)

	return &Result{Transaction: txn, NewBalance: newBalance}, nil
}

// Deposit credits an existing active account. Deposits carry no source
// account and require no ownership: anyone may pay into a known account.
func (e *Engine) Deposit(ctx context.Context, to string, amount decimal.Decimal, description string) (*Result, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	dst, err := e.accounts.GetByNumber(ctx, to)
	if err != nil {
		return nil, account.ErrAccountNotFound{Number: to}
	}
	if !dst.Active {
		return nil, account.ErrAccountInactive{Number: to}
	}

	txn := transaction.NewDeposit(to, amount, description)
	txn.CorrelationID = shared.CorrelationIDFromContext(ctx)

	newBalance, err := e.store.ApplyDelta(ctx, to, amount)
	if err != nil {
		e.logger.Error("deposit apply failed",
			"transaction_id", txn.TransactionID.String(),
			"to", to,
			"error", err,
		)
		e.record(ctx, txn.MarkFailed(failureReasonFor(err)))
		return nil, ErrTransferFailed{TransactionID: txn.TransactionID, Cause: err}
	}

	e.record(ctx, txn)

	return &Result{Transaction: txn, NewBalance: newBalance}, nil
}

// Withdraw debits the principal's account. Like Transfer, the existence
// and ownership checks collapse into one lookup.
func (e *Engine) Withdraw(ctx context.Context, principal, from string, amount decimal.Decimal, description string) (*Result, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	src, err := e.accounts.GetByNumber(ctx, from)
	if err != nil || src.OwnerID != principal {
		return nil, account.ErrAccountNotFound{Number: from}
	}
	if !src.Active {
		return nil, account.ErrAccountInactive{Number: from}
	}

	if !src.CanDebit(amount) {
		return nil, ledger.ErrInsufficientFunds{Number: from}
	}

	txn := transaction.NewWithdrawal(from, amount, description)
	txn.CorrelationID = shared.CorrelationIDFromContext(ctx)

	newBalance, err := e.store.ApplyDelta(ctx, from, amount.Neg())
	if err != nil {
		e.logger.Error("withdrawal apply failed",
			"transaction_id", txn.TransactionID.String(),
			"from", from,
			"error", err,
		)
		e.record(ctx, txn.MarkFailed(failureReasonFor(err)))

		if errors.Is(err, ledger.ErrInsufficientFunds{}) {
			return nil, ledger.ErrInsufficientFunds{Number: from}
		}
		return nil, ErrTransferFailed{TransactionID: txn.TransactionID, Cause: err}
	}

	e.record(ctx, txn)

	return &Result{Transaction: txn, NewBalance: newBalance}, nil
}

// record appends the entry to the audit trail and notifies the audit
// publisher. Neither failure is surfaced to the caller: the balance
// mutation already settled one way or the other, and retrying here could
// double-record.
func (e *Engine) record(ctx context.Context, txn *transaction.Transaction) {
	if err := e.log.Append(ctx, txn); err != nil {
		e.logger.Error("failed to append transaction to audit trail",
			"transaction_id", txn.TransactionID.String(),
			"status", string(txn.Status),
			"error", err,
		)
		return
	}

	if e.notifier == nil {
		return
	}
	if err := e.notifier.TransactionRecorded(ctx, txn); err != nil {
		e.logger.Error("failed to notify audit publisher",
			"transaction_id", txn.TransactionID.String(),
			"error", err,
		)
	}
}

// validateAmount enforces strictly positive amounts with at most two
// fractional digits.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return shared.ErrInvalidAmount
	}
	return nil
}

func failureReasonFor(err error) shared.FailureReason {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds{}):
		return shared.FailureReasonInsufficientFunds
	case errors.Is(err, account.ErrAccountNotFound{}):
		return shared.FailureReasonAccountNotFound
	default:
		return shared.FailureReasonApplyFailed
	}
}
