// Package audit turns recorded transactions into events on the audit
// topic. With the postgres backend the entries pass through the
// transactional outbox and a poller drains them; with the in-process
// backend events are published directly, best-effort.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartbank-ledger/internal/domain/outbox"
	"github.com/smartbank-ledger/internal/domain/transaction"
	"github.com/smartbank-ledger/internal/platform/messaging/producers"
)

// OutboxNotifier stages recorded transactions in the outbox table. The
// poller publishes them later, so a broker outage never stalls the
// transfer path.
type OutboxNotifier struct {
	repo   outbox.Repository
	logger *slog.Logger
}

// NewOutboxNotifier creates an OutboxNotifier over the repository.
func NewOutboxNotifier(logger *slog.Logger, repo outbox.Repository) *OutboxNotifier {
	return &OutboxNotifier{
		repo:   repo,
		logger: logger,
	}
}

func (n *OutboxNotifier) TransactionRecorded(ctx context.Context, txn *transaction.Transaction) error {
	message, err := outbox.NewMessage(txn)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}

	if err := n.repo.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to stage audit event: %w", err)
	}

	n.logger.Debug("audit event staged",
		"transaction_id", txn.TransactionID.String(),
		"outbox_id", message.ID,
	)
	return nil
}

// DirectNotifier publishes recorded transactions straight to the audit
// topic. Used with the in-process backend, which has no outbox table;
// delivery is best-effort.
type DirectNotifier struct {
	publisher producers.MessagePublisher
	logger    *slog.Logger
}

// NewDirectNotifier creates a DirectNotifier over the publisher.
func NewDirectNotifier(logger *slog.Logger, publisher producers.MessagePublisher) *DirectNotifier {
	return &DirectNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *DirectNotifier) TransactionRecorded(ctx context.Context, txn *transaction.Transaction) error {
	if err := n.publisher.Publish(ctx, txn.TransactionID.String(), txn); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}

	n.logger.Debug("audit event published", "transaction_id", txn.TransactionID.String())
	return nil
}
