package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/smartbank-ledger/internal/domain/transaction"
)

// TransactionLog implements transaction.Log as an append-only in-process
// slice. Entries are copied on the way in and out so no caller can mutate
// the trail after the fact.
type TransactionLog struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries []*transaction.Transaction
	byID    map[uuid.UUID]*transaction.Transaction
}

// NewTransactionLog creates an empty in-memory audit trail.
func NewTransactionLog(logger *slog.Logger) *TransactionLog {
	return &TransactionLog{
		logger: logger,
		byID:   make(map[uuid.UUID]*transaction.Transaction),
	}
}

var _ transaction.Log = (*TransactionLog)(nil)

// Append stores a new immutable entry.
func (l *TransactionLog) Append(_ context.Context, txn *transaction.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[txn.TransactionID]; exists {
		return transaction.ErrDuplicateTransaction{TransactionID: txn.TransactionID}
	}

	cp := *txn
	l.entries = append(l.entries, &cp)
	l.byID[txn.TransactionID] = &cp

	l.logger.Debug("transaction appended",
		"transaction_id", txn.TransactionID.String(),
		"type", string(txn.Type),
		"status", string(txn.Status),
	)
	return nil
}

// GetByTransactionID returns a copy of the entry with the given ID.
func (l *TransactionLog) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txn, ok := l.byID[transactionID]
	if !ok {
		return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
	}
	cp := *txn
	return &cp, nil
}

// ListRecent walks the trail backwards collecting entries that reference
// any of the given account numbers, newest first.
func (l *TransactionLog) ListRecent(_ context.Context, accountNumbers []string, limit int) ([]*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*transaction.Transaction
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		txn := l.entries[i]
		for _, number := range accountNumbers {
			if txn.References(number) {
				cp := *txn
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}
