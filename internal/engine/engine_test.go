package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbank-ledger/internal/data/memory"
	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/domain/transaction"
	"github.com/smartbank-ledger/internal/limits"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *memory.TransactionLog) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(logger)
	log := memory.NewTransactionLog(logger)
	return New(logger, store, store, log, nil), store, log
}

func seedAccount(t *testing.T, store *memory.Store, number, owner string, balance int64) {
	t.Helper()
	acc, err := account.New(number, owner, account.TypeSavings, decimal.NewFromInt(balance), decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), acc))
}

func balanceOf(t *testing.T, store *memory.Store, number string) decimal.Decimal {
	t.Helper()
	b, err := store.GetBalance(context.Background(), number)
	require.NoError(t, err)
	return b
}

func TestEngine_Transfer_Success(t *testing.T) {
	eng, store, log := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 500)
	seedAccount(t, store, "SB000000000002", "bob", 100)

	result, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(150), "rent")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(350)), "new balance %s", result.NewBalance)
	assert.True(t, balanceOf(t, store, "SB000000000002").Equal(decimal.NewFromInt(250)))

	txn, err := log.GetByTransactionID(ctx, result.Transaction.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, shared.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, shared.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "SB000000000001", *txn.FromAccount)
	assert.Equal(t, "SB000000000002", *txn.ToAccount)
	assert.Equal(t, "rent", txn.Description)
}

func TestEngine_Transfer_ValidationOrder(t *testing.T) {
	eng, store, log := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 500)
	seedAccount(t, store, "SB000000000002", "bob", 100)

	tests := []struct {
		name      string
		principal string
		from      string
		to        string
		amount    decimal.Decimal
		wantErr   error
	}{
		{
			name:      "zero amount",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000002",
			amount:    decimal.Zero,
			wantErr:   shared.ErrInvalidAmount,
		},
		{
			name:      "negative amount",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000002",
			amount:    decimal.NewFromInt(-10),
			wantErr:   shared.ErrInvalidAmount,
		},
		{
			name:      "sub-cent precision",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000002",
			amount:    decimal.RequireFromString("10.001"),
			wantErr:   shared.ErrInvalidAmount,
		},
		{
			name:      "self transfer",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000001",
			amount:    decimal.NewFromInt(10),
			wantErr:   shared.ErrSelfTransfer,
		},
		{
			name:      "unknown source",
			principal: "alice",
			from:      "SB999999999999",
			to:        "SB000000000002",
			amount:    decimal.NewFromInt(10),
			wantErr:   account.ErrAccountNotFound{},
		},
		{
			name:      "source owned by someone else reads as not found",
			principal: "alice",
			from:      "SB000000000002",
			to:        "SB000000000001",
			amount:    decimal.NewFromInt(10),
			wantErr:   account.ErrAccountNotFound{},
		},
		{
			name:      "unknown destination",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB999999999999",
			amount:    decimal.NewFromInt(10),
			wantErr:   account.ErrAccountNotFound{},
		},
		{
			name:      "insufficient funds",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000002",
			amount:    decimal.NewFromInt(501),
			wantErr:   ledger.ErrInsufficientFunds{},
		},
		{
			name:      "over daily limit",
			principal: "alice",
			from:      "SB000000000001",
			to:        "SB000000000002",
			amount:    decimal.NewFromInt(60000),
			wantErr:   limits.ErrLimitExceeded{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Transfer(ctx, tt.principal, tt.from, tt.to, tt.amount, "")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Validation rejections leave no trace in the audit trail and no
	// balance change.
	entries, err := log.ListRecent(ctx, []string{"SB000000000001", "SB000000000002"}, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, balanceOf(t, store, "SB000000000001").Equal(decimal.NewFromInt(500)))
	assert.True(t, balanceOf(t, store, "SB000000000002").Equal(decimal.NewFromInt(100)))
}

func TestEngine_Transfer_InsufficientFundsBeatsLimit(t *testing.T) {
	// When an amount is both over the balance and over the limit, the
	// funds check wins: it runs first.
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 100)
	seedAccount(t, store, "SB000000000002", "bob", 0)

	_, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(60000), "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds{})
	assert.NotErrorIs(t, err, limits.ErrLimitExceeded{})
}

func TestEngine_Transfer_InactiveAccounts(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	frozen, err := account.New("SB000000000001", "alice", account.TypeSavings, decimal.NewFromInt(500), decimal.NewFromInt(50000))
	require.NoError(t, err)
	frozen.Active = false
	require.NoError(t, store.Create(ctx, frozen))
	seedAccount(t, store, "SB000000000002", "bob", 100)

	_, err = eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, account.ErrAccountInactive{Number: "SB000000000001"})

	_, err = eng.Transfer(ctx, "bob", "SB000000000002", "SB000000000001", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, account.ErrAccountInactive{Number: "SB000000000001"})
}

func TestEngine_Transfer_ExactBalance(t *testing.T) {
	// A transfer of the full balance succeeds and leaves exactly zero.
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 300)
	seedAccount(t, store, "SB000000000002", "bob", 0)

	result, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(300), "")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.IsZero())
	assert.True(t, balanceOf(t, store, "SB000000000002").Equal(decimal.NewFromInt(300)))
}

func TestEngine_Transfer_ConcurrentDrain(t *testing.T) {
	// Two concurrent transfers of 60 from a balance of 100: exactly one
	// must succeed, money must be conserved, and no balance may go
	// negative.
	eng, store, log := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 100)
	seedAccount(t, store, "SB000000000002", "bob", 0)
	seedAccount(t, store, "SB000000000003", "carol", 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	targets := []string{"SB000000000002", "SB000000000003"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Transfer(ctx, "alice", "SB000000000001", targets[i], decimal.NewFromInt(60), "")
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientFunds{})
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	src := balanceOf(t, store, "SB000000000001")
	total := src.
		Add(balanceOf(t, store, "SB000000000002")).
		Add(balanceOf(t, store, "SB000000000003"))
	assert.True(t, total.Equal(decimal.NewFromInt(100)), "money not conserved: %s", total)
	assert.False(t, src.IsNegative())
	assert.True(t, src.Equal(decimal.NewFromInt(40)))

	// At most the losing transfer that passed validation before the
	// drain shows up as FAILED; the winner is COMPLETED.
	entries, err := log.ListRecent(ctx, []string{"SB000000000001"}, 10)
	require.NoError(t, err)
	var completed int
	for _, e := range entries {
		if e.Status == shared.TransactionStatusCompleted {
			completed++
		} else {
			assert.Equal(t, string(shared.FailureReasonInsufficientFunds), e.FailureReason)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestEngine_Transfer_OppositeDirections(t *testing.T) {
	// Many transfers in both directions over the same pair must neither
	// deadlock nor lose money.
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 1000)
	seedAccount(t, store, "SB000000000002", "bob", 1000)

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(1), "")
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := eng.Transfer(ctx, "bob", "SB000000000002", "SB000000000001", decimal.NewFromInt(1), "")
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	total := balanceOf(t, store, "SB000000000001").Add(balanceOf(t, store, "SB000000000002"))
	assert.True(t, total.Equal(decimal.NewFromInt(2000)), "money not conserved: %s", total)
}

func TestEngine_Deposit(t *testing.T) {
	eng, store, log := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 50)

	result, err := eng.Deposit(ctx, "SB000000000001", decimal.RequireFromString("25.50"), "paycheck")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.RequireFromString("75.50")))

	txn, err := log.GetByTransactionID(ctx, result.Transaction.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, shared.TransactionTypeDeposit, txn.Type)
	assert.Nil(t, txn.FromAccount)
	assert.Equal(t, "SB000000000001", *txn.ToAccount)

	_, err = eng.Deposit(ctx, "SB999999999999", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	_, err = eng.Deposit(ctx, "SB000000000001", decimal.Zero, "")
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestEngine_Withdraw(t *testing.T) {
	eng, store, log := newTestEngine(t)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 100)

	result, err := eng.Withdraw(ctx, "alice", "SB000000000001", decimal.NewFromInt(40), "atm")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(60)))

	txn, err := log.GetByTransactionID(ctx, result.Transaction.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, shared.TransactionTypeWithdrawal, txn.Type)
	assert.Equal(t, "SB000000000001", *txn.FromAccount)
	assert.Nil(t, txn.ToAccount)

	// Ownership collapses into not-found.
	_, err = eng.Withdraw(ctx, "bob", "SB000000000001", decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	_, err = eng.Withdraw(ctx, "alice", "SB000000000001", decimal.NewFromInt(100), "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds{})
	assert.True(t, balanceOf(t, store, "SB000000000001").Equal(decimal.NewFromInt(60)))
}

// failingStore wraps a ledger.Store and fails ApplyTransfer after
// validation has already passed.
type failingStore struct {
	ledger.Store
	applyErr error
}

func (s *failingStore) ApplyTransfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	return s.applyErr
}

func TestEngine_Transfer_ApplyFailureIsRecorded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(logger)
	log := memory.NewTransactionLog(logger)
	broken := &failingStore{Store: store, applyErr: errors.New("backend unavailable")}
	eng := New(logger, store, broken, log, nil)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 500)
	seedAccount(t, store, "SB000000000002", "bob", 0)

	_, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(100), "")
	var failed ErrTransferFailed
	require.ErrorAs(t, err, &failed)
	assert.ErrorContains(t, err, "backend unavailable")

	// Post-validation failures are always logged as FAILED with no
	// balance change on either side.
	entries, listErr := log.ListRecent(ctx, []string{"SB000000000001"}, 10)
	require.NoError(t, listErr)
	require.Len(t, entries, 1)
	assert.Equal(t, shared.TransactionStatusFailed, entries[0].Status)
	assert.Equal(t, string(shared.FailureReasonApplyFailed), entries[0].FailureReason)
	assert.True(t, balanceOf(t, store, "SB000000000001").Equal(decimal.NewFromInt(500)))
	assert.True(t, balanceOf(t, store, "SB000000000002").IsZero())
}

// recordingNotifier captures audit notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	seen []*transaction.Transaction
	err  error
}

func (n *recordingNotifier) TransactionRecorded(_ context.Context, txn *transaction.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, txn)
	return n.err
}

func TestEngine_NotifierReceivesRecordedTransactions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(logger)
	log := memory.NewTransactionLog(logger)
	notifier := &recordingNotifier{}
	eng := New(logger, store, store, log, notifier)
	ctx := context.Background()

	seedAccount(t, store, "SB000000000001", "alice", 500)
	seedAccount(t, store, "SB000000000002", "bob", 0)

	_, err := eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.Len(t, notifier.seen, 1)
	assert.Equal(t, shared.TransactionTypeTransfer, notifier.seen[0].Type)

	// A notifier failure never fails the operation.
	notifier.err = errors.New("broker down")
	_, err = eng.Transfer(ctx, "alice", "SB000000000001", "SB000000000002", decimal.NewFromInt(10), "")
	require.NoError(t, err)
}
