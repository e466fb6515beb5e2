package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the relay needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Relay copies events from reader to sink until ctx is cancelled. Messages that
// cannot be decoded are committed and skipped; a failed delivery is not
// committed so it is read again after a restart.
func Relay(ctx context.Context, reader MessageReader, sink Publisher) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		event, err := Decode(msg.Value)
		if err != nil {
			slog.Warn("Skipping malformed event", "offset", msg.Offset, "error", err)
		} else if err := sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to relay event at offset %d: %w", msg.Offset, err)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}
	}
}
