package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes audit events to the primary audit topic.
// The value is JSON-encoded; the key selects the partition.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher receives events whose publication retries were
// exhausted, preserving the original payload alongside the reason.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the subset of kafka.Writer the producers need. Tests
// substitute their own implementation.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
