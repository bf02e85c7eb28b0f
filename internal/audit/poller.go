package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartbank-ledger/internal/config"
	"github.com/smartbank-ledger/internal/domain/outbox"
	"github.com/smartbank-ledger/internal/domain/shared"
	"github.com/smartbank-ledger/internal/platform/messaging/producers"
)

// Poller drains pending outbox messages onto the audit topic.
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        producers.MessagePublisher
	dlqPublisher     producers.DeadLetterPublisher // may be nil when DLQ is disabled
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher producers.MessagePublisher,
	dlqPublisher producers.DeadLetterPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		dlqPublisher:     dlqPublisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting audit outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Audit outbox poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Audit poller tick: processing pending messages")
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		logger := p.logger
		if txn, err := msg.GetTransaction(); err == nil && txn.CorrelationID != "" {
			logger = p.logger.With("correlation_id", txn.CorrelationID)
		}

		if err := p.publish(ctx, msg); err != nil {
			logger.Error("Failed to publish outbox message to audit topic",
				"outbox_id", msg.ID, "transaction_id", msg.TransactionID, "current_attempts", msg.Attempts, "error", err,
			)
			p.handlePublishFailure(ctx, logger, msg)
			continue
		}

		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed); err != nil {
			logger.Error("Published audit event but failed to mark outbox message as PROCESSED",
				"outbox_id", msg.ID, "error", err,
			)
			continue
		}
		logger.Info("Audit event published and outbox message marked as PROCESSED",
			"outbox_id", msg.ID, "transaction_id", msg.TransactionID,
		)
	}
	return nil
}

func (p *Poller) publish(ctx context.Context, msg *outbox.Message) error {
	txn, err := msg.GetTransaction()
	if err != nil {
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", msg.ID, err)
	}
	return p.publisher.Publish(ctx, txn.TransactionID.String(), txn)
}

// handlePublishFailure bumps the attempt counter; once the message has
// exhausted its attempts it goes to the DLQ and is marked
// FAILED_TO_PUBLISH so the poller never picks it up again.
func (p *Poller) handlePublishFailure(ctx context.Context, logger *slog.Logger, msg *outbox.Message) {
	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", err)
		return
	}

	if msg.Attempts+1 < p.maxRetryAttempts {
		return
	}

	logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
		"outbox_id", msg.ID, "transaction_id", msg.TransactionID, "attempts_made", msg.Attempts+1,
	)

	if p.dlqPublisher != nil {
		if err := p.dlqPublisher.PublishToDLQ(ctx, msg.TransactionID.String(), msg.Payload, "audit_publish_retries_exhausted"); err != nil {
			logger.Error("Failed to publish exhausted outbox message to DLQ", "outbox_id", msg.ID, "error", err)
		}
	}

	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "outbox_id", msg.ID, "error", err)
	}
}
