// Package memory provides the in-process backend for the ledger: a
// thread-safe account store with linearizable balance mutations and an
// append-only transaction log. It is the default backend and the
// reference implementation of the ledger's concurrency guarantees.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
)

// Store implements account.Repository and ledger.Store over an in-process
// map. Each account lives in a cell with its own mutex; two-account
// operations acquire cell locks in lexicographic account-number order so
// opposing transfers over the same pair cannot deadlock.
type Store struct {
	logger *slog.Logger

	mu       sync.RWMutex // guards accounts and order
	accounts map[string]*cell
	order    []string // account numbers in creation order
}

type cell struct {
	mu  sync.Mutex
	acc *account.Account
}

// NewStore creates an empty in-memory store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger:   logger,
		accounts: make(map[string]*cell),
	}
}

var (
	_ account.Repository = (*Store)(nil)
	_ ledger.Store       = (*Store)(nil)
)

// Create reserves the account number and stores the record as a single
// compare-and-insert under the registry lock.
func (s *Store) Create(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.Number]; exists {
		return account.ErrDuplicateAccountNumber{Number: acc.Number}
	}

	cp := *acc
	s.accounts[acc.Number] = &cell{acc: &cp}
	s.order = append(s.order, acc.Number)

	s.logger.Debug("account stored", "number", acc.Number, "owner_id", acc.OwnerID)
	return nil
}

// GetByNumber returns a snapshot of the account.
func (s *Store) GetByNumber(_ context.Context, number string) (*account.Account, error) {
	c, err := s.cell(number)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c.acc
	return &cp, nil
}

// ListByOwner returns snapshots of the owner's accounts in creation order.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]*account.Account, error) {
	s.mu.RLock()
	var cells []*cell
	for _, number := range s.order {
		c := s.accounts[number]
		cells = append(cells, c)
	}
	s.mu.RUnlock()

	var accounts []*account.Account
	for _, c := range cells {
		c.mu.Lock()
		if c.acc.OwnerID == ownerID {
			cp := *c.acc
			accounts = append(accounts, &cp)
		}
		c.mu.Unlock()
	}
	return accounts, nil
}

// GetBalance returns the account's current balance.
func (s *Store) GetBalance(_ context.Context, number string) (decimal.Decimal, error) {
	c, err := s.cell(number)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acc.Balance, nil
}

// ApplyDelta adds delta to the account's balance, rejecting any mutation
// that would leave it negative.
func (s *Store) ApplyDelta(_ context.Context, number string, delta decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.cell(number)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.acc.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ledger.ErrInsufficientFunds{Number: number}
	}
	c.acc.Balance = next
	return next, nil
}

// ApplyTransfer debits from and credits to under both cell locks, held for
// the whole mutation. Locks are acquired in lexicographic number order.
func (s *Store) ApplyTransfer(_ context.Context, from, to string, amount decimal.Decimal) error {
	src, err := s.cell(from)
	if err != nil {
		return err
	}
	dst, err := s.cell(to)
	if err != nil {
		return err
	}

	first, second := src, dst
	if to < from {
		first, second = dst, src
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	if second != first {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	if src.acc.Balance.LessThan(amount) {
		return ledger.ErrInsufficientFunds{Number: from}
	}

	src.acc.Balance = src.acc.Balance.Sub(amount)
	dst.acc.Balance = dst.acc.Balance.Add(amount)
	return nil
}

func (s *Store) cell(number string) (*cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.accounts[number]
	if !ok {
		return nil, account.ErrAccountNotFound{Number: number}
	}
	return c, nil
}
