package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Log is the append-only transaction audit trail. Entries are immutable:
// implementations expose no update or delete operations.
type Log interface {
	// Append stores a new entry. Returns ErrDuplicateTransaction if an
	// entry with the same transaction ID already exists.
	Append(ctx context.Context, txn *Transaction) error

	// GetByTransactionID retrieves an entry by its transaction ID.
	// Returns ErrTransactionNotFound if no entry exists.
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)

	// ListRecent returns up to limit entries referencing any of the given
	// account numbers (as source or destination), most recent first.
	ListRecent(ctx context.Context, accountNumbers []string, limit int) ([]*Transaction, error)
}

// ErrTransactionNotFound indicates missing audit trail entry
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID.
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateTransaction indicates transaction ID uniqueness violation
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.TransactionID.String()
}

// Is matches any ErrDuplicateTransaction when the target carries a nil ID.
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}
