// Package mongo provides the MongoDB-backed transaction log. The audit
// trail lives in its own document store so the write-heavy append path
// and the read-heavy history queries stay off the relational backend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/domain/transaction"
)

const (
	// TransactionsCollectionName is the name of the audit trail collection in MongoDB
	TransactionsCollectionName = "transactions"
)

// transactionDoc is the storage shape of an audit entry. Amounts travel
// as fixed-point strings so no document ever holds a float.
type transactionDoc struct {
	TransactionID string     `bson:"transaction_id"`
	FromAccount   *string    `bson:"from_account,omitempty"`
	ToAccount     *string    `bson:"to_account,omitempty"`
	Amount        string     `bson:"amount"`
	Type          string     `bson:"type"`
	Description   string     `bson:"description,omitempty"`
	Status        string     `bson:"status"`
	FailureReason string     `bson:"failure_reason,omitempty"`
	CorrelationID string     `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
}

// TransactionLog implements transaction.Log for MongoDB.
type TransactionLog struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionLog creates a MongoDB transaction log.
func NewTransactionLog(logger *slog.Logger, db *mongo.Database) *TransactionLog {
	return &TransactionLog{
		db:     db,
		logger: logger,
	}
}

var _ transaction.Log = (*TransactionLog)(nil)

// Append stores a new audit entry after checking for duplicates.
// Returns ErrDuplicateTransaction if an entry with the same ID exists.
func (l *TransactionLog) Append(ctx context.Context, txn *transaction.Transaction) error {
	collection := l.db.Collection(TransactionsCollectionName)

	filter := bson.M{"transaction_id": txn.TransactionID.String()}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		l.logger.Error("failed to check for existing transaction",
			"transaction_id", txn.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing transaction: %w", err)
	}
	if count > 0 {
		return transaction.ErrDuplicateTransaction{TransactionID: txn.TransactionID}
	}

	_, err = collection.InsertOne(ctx, toDoc(txn))
	if err != nil {
		l.logger.Error("failed to append transaction",
			"transaction_id", txn.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves an audit entry by its transaction ID.
// Returns ErrTransactionNotFound if no entry exists.
func (l *TransactionLog) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	collection := l.db.Collection(TransactionsCollectionName)

	filter := bson.M{"transaction_id": transactionID.String()}
	var doc transactionDoc
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
		}
		l.logger.Error("failed to get transaction",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return fromDoc(&doc)
}

// ListRecent retrieves entries referencing any of the given account
// numbers as source or destination, newest first.
func (l *TransactionLog) ListRecent(ctx context.Context, accountNumbers []string, limit int) ([]*transaction.Transaction, error) {
	collection := l.db.Collection(TransactionsCollectionName)

	filter := bson.M{
		"$or": bson.A{
			bson.M{"from_account": bson.M{"$in": accountNumbers}},
			bson.M{"to_account": bson.M{"$in": accountNumbers}},
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		l.logger.Error("failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		l.logger.Error("failed to decode transactions", "error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	transactions := make([]*transaction.Transaction, 0, len(docs))
	for _, doc := range docs {
		txn, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func toDoc(txn *transaction.Transaction) *transactionDoc {
	return &transactionDoc{
		TransactionID: txn.TransactionID.String(),
		FromAccount:   txn.FromAccount,
		ToAccount:     txn.ToAccount,
		Amount:        txn.Amount.StringFixed(2),
		Type:          string(txn.Type),
		Description:   txn.Description,
		Status:        string(txn.Status),
		FailureReason: txn.FailureReason,
		CorrelationID: txn.CorrelationID,
		CreatedAt:     txn.CreatedAt,
	}
}

func fromDoc(doc *transactionDoc) (*transaction.Transaction, error) {
	transactionID, err := uuid.Parse(doc.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction ID %q: %w", doc.TransactionID, err)
	}
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", doc.Amount, err)
	}

	return &transaction.Transaction{
		TransactionID: transactionID,
		FromAccount:   doc.FromAccount,
		ToAccount:     doc.ToAccount,
		Amount:        amount,
		Type:          shared.TransactionType(doc.Type),
		Description:   doc.Description,
		Status:        shared.TransactionStatus(doc.Status),
		FailureReason: doc.FailureReason,
		CorrelationID: doc.CorrelationID,
		CreatedAt:     doc.CreatedAt,
	}, nil
}
