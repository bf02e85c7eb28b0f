package engine

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// PooledService wraps a Service with a fixed-size worker pool, bounding
// how many monetary operations execute concurrently. Callers block until
// their operation has run to completion; the pool only caps parallelism,
// it does not make the API asynchronous.
type PooledService struct {
	base   Service
	pool   *ants.Pool
	logger *slog.Logger
}

// WorkerPoolConfig sizes the pool.
type WorkerPoolConfig struct {
	Size int
}

// NewPooledService creates a PooledService with the configured pool size.
func NewPooledService(base Service, config WorkerPoolConfig, logger *slog.Logger) (*PooledService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &PooledService{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

var _ Service = (*PooledService)(nil)

type outcome struct {
	result *Result
	err    error
}

// submit runs fn on a pool worker and waits for its outcome.
func (s *PooledService) submit(fn func() (*Result, error)) (*Result, error) {
	resultChan := make(chan outcome, 1)

	err := s.pool.Submit(func() {
		result, err := fn()
		resultChan <- outcome{result: result, err: err}
	})
	if err != nil {
		s.logger.Error("failed to submit operation to worker pool", "error", err)
		return nil, err
	}

	out := <-resultChan
	return out.result, out.err
}

// Transfer executes the transfer on a pool worker.
func (s *PooledService) Transfer(ctx context.Context, principal, from, to string, amount decimal.Decimal, description string) (*Result, error) {
	return s.submit(func() (*Result, error) {
		return s.base.Transfer(ctx, principal, from, to, amount, description)
	})
}

// Deposit executes the deposit on a pool worker.
func (s *PooledService) Deposit(ctx context.Context, to string, amount decimal.Decimal, description string) (*Result, error) {
	return s.submit(func() (*Result, error) {
		return s.base.Deposit(ctx, to, amount, description)
	})
}

// Withdraw executes the withdrawal on a pool worker.
func (s *PooledService) Withdraw(ctx context.Context, principal, from string, amount decimal.Decimal, description string) (*Result, error) {
	return s.submit(func() (*Result, error) {
		return s.base.Withdraw(ctx, principal, from, amount, description)
	})
}

// Shutdown releases the worker pool.
func (s *PooledService) Shutdown() {
	s.logger.Info("shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of busy workers.
func (s *PooledService) Running() int {
	return s.pool.Running()
}

// Capacity returns the pool size.
func (s *PooledService) Capacity() int {
	return s.pool.Cap()
}
