package registry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartbank-ledger/internal/domain/account"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

var _ account.Repository = (*MockAccountRepository)(nil)

func newTestRegistry(repo account.Repository, opts ...Option) *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(logger, repo, opts...)
}

func TestRegistry_OpenAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(acc *account.Account) bool {
			return strings.HasPrefix(acc.Number, "SB") && len(acc.Number) == 14 &&
				acc.OwnerID == "user-1" && acc.Active
		})).Return(nil).Once()

		acc, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.NewFromInt(100))
		require.NoError(t, err)

		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
		assert.True(t, acc.DailyLimit.Equal(decimal.NewFromInt(50000)), "Daily limit comes from the policy table")
		repo.AssertExpectations(t)
	})

	t.Run("LimitFollowsAccountType", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		acc, err := registry.OpenAccount(ctx, "user-1", account.TypeCurrent, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, acc.DailyLimit.Equal(decimal.NewFromInt(100000)))
	})

	t.Run("InvalidType", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		_, err := registry.OpenAccount(ctx, "user-1", account.Type("PREMIUM"), decimal.Zero)

		var invalidType account.ErrInvalidAccountType
		assert.ErrorAs(t, err, &invalidType)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("NegativeDeposit", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		_, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.NewFromInt(-1))

		var negDeposit account.ErrNegativeDeposit
		assert.ErrorAs(t, err, &negDeposit)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("SubCentDeposit", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		_, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.RequireFromString("10.005"))

		var subCent account.ErrSubCentDeposit
		assert.ErrorAs(t, err, &subCent)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("RetriesOnCollision", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		repo.On("Create", mock.Anything, mock.Anything).
			Return(account.ErrDuplicateAccountNumber{}).Twice()
		repo.On("Create", mock.Anything, mock.Anything).
			Return(nil).Once()

		acc, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.Zero)
		require.NoError(t, err)
		assert.NotEmpty(t, acc.Number)
		repo.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("ExhaustsRetries", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo, WithMaxAttempts(3))

		repo.On("Create", mock.Anything, mock.Anything).
			Return(account.ErrDuplicateAccountNumber{})

		_, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.Zero)
		assert.ErrorIs(t, err, account.ErrExhaustedRetries{Attempts: 3})
		repo.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("NonCollisionErrorIsNotRetried", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo)

		repo.On("Create", mock.Anything, mock.Anything).
			Return(errors.New("connection refused")).Once()

		_, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.Zero)
		assert.Error(t, err)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("CustomPrefix", func(t *testing.T) {
		repo := new(MockAccountRepository)
		registry := newTestRegistry(repo, WithNumberPrefix("XX"))

		repo.On("Create", mock.Anything, mock.MatchedBy(func(acc *account.Account) bool {
			return strings.HasPrefix(acc.Number, "XX")
		})).Return(nil).Once()

		_, err := registry.OpenAccount(ctx, "user-1", account.TypeSavings, decimal.Zero)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestRegistry_GenerateNumber(t *testing.T) {
	registry := newTestRegistry(new(MockAccountRepository))

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		number := registry.generateNumber()
		require.Len(t, number, 14)
		require.True(t, strings.HasPrefix(number, "SB"))
		for _, r := range number[2:] {
			require.True(t, r >= '0' && r <= '9', "Suffix must be numeric: %s", number)
		}
		seen[number] = struct{}{}
	}

	// With a 12-digit space, 1000 draws should essentially never collide.
	assert.Greater(t, len(seen), 990)
}

func TestRegistry_FindByNumber(t *testing.T) {
	repo := new(MockAccountRepository)
	registry := newTestRegistry(repo)

	repo.On("GetByNumber", mock.Anything, "SB000000000009").
		Return(nil, account.ErrAccountNotFound{Number: "SB000000000009"})

	_, err := registry.FindByNumber(context.Background(), "SB000000000009")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{Number: "SB000000000009"})
	repo.AssertExpectations(t)
}
