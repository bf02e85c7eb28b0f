package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService mocks the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Transfer(ctx context.Context, principal, from, to string, amount decimal.Decimal, description string) (*Result, error) {
	args := m.Called(ctx, principal, from, to, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockService) Deposit(ctx context.Context, to string, amount decimal.Decimal, description string) (*Result, error) {
	args := m.Called(ctx, to, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockService) Withdraw(ctx context.Context, principal, from string, amount decimal.Decimal, description string) (*Result, error) {
	args := m.Called(ctx, principal, from, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func TestPooledService_Transfer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name       string
		setupMocks func(m *MockService)
		wantErr    error
	}{
		{
			name: "successful transfer",
			setupMocks: func(m *MockService) {
				m.On("Transfer", mock.Anything, "alice", "SB000000000001", "SB000000000002", amount, "rent").
					Return(&Result{NewBalance: decimal.NewFromInt(400)}, nil).Once()
			},
		},
		{
			name: "transfer error passes through",
			setupMocks: func(m *MockService) {
				m.On("Transfer", mock.Anything, "alice", "SB000000000001", "SB000000000002", amount, "rent").
					Return(nil, errors.New("processing error")).Once()
			},
			wantErr: errors.New("processing error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &MockService{}
			pooled, err := NewPooledService(base, WorkerPoolConfig{Size: 2}, logger)
			require.NoError(t, err)
			defer pooled.Shutdown()

			tt.setupMocks(base)

			result, err := pooled.Transfer(context.Background(), "alice", "SB000000000001", "SB000000000002", amount, "rent")
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(400)))
			}

			base.AssertExpectations(t)
		})
	}
}

func TestPooledService_Concurrency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := &MockService{}

	pooled, err := NewPooledService(base, WorkerPoolConfig{Size: 5}, logger)
	require.NoError(t, err)
	defer pooled.Shutdown()

	var mu sync.Mutex
	counter := 0
	base.On("Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(&Result{}, nil)

	const numRequests = 10
	var wg sync.WaitGroup
	wg.Add(numRequests)
	for i := 0; i < numRequests; i++ {
		go func() {
			defer wg.Done()
			_, err := pooled.Deposit(context.Background(), "SB000000000001", decimal.NewFromInt(1), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, numRequests, counter)
	assert.Equal(t, 5, pooled.Capacity())
}
