package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamConsumerConfig configures a StreamConsumer.
type StreamConsumerConfig struct {
	// Stream is the Redis stream name to consume from (required).
	Stream string

	// Group is the consumer group name. Empty means a plain XREAD consumer.
	Group string

	// Consumer is the consumer name within the group. Required if Group is set.
	Consumer string

	// LastID is the starting position of a plain consumer and the start of a newly created group:
	//   - "0" = read from beginning
	//   - "$" = read only new messages
	//   - "<id>" = read after specific ID (e.g., "1234567890123-0")
	// Default: "0"
	LastID string

	// Count is the max number of entries to read per batch. Default: 100.
	Count int64

	// Block is how long to wait for new entries. Default: 5 seconds.
	Block time.Duration

	// RetryInterval is how long to wait before retrying after an error.
	// Default: 1 second.
	RetryInterval time.Duration

	// MaxRetryInterval is the maximum retry interval (with exponential backoff).
	// Default: 30 seconds.
	MaxRetryInterval time.Duration

	// Logger for logging. If nil, uses a no-op logger.
	Logger *zap.Logger
}

// MessageHandler processes a stream message. Return nil to acknowledge, or an error to leave the
// message pending; the consumer then pauses and re-reads it before anything newer.
type MessageHandler func(ctx context.Context, msg Message) error

// Message represents a single stream entry with parsed fields.
type Message struct {
	// ID is the Redis stream entry ID (e.g., "1234567890123-0").
	ID string

	// Stream is the stream name this message came from.
	Stream string

	// Values contains the entry fields as key-value pairs.
	Values map[string]interface{}
}

// StreamConsumer consumes a Redis stream strictly in order from a single goroutine, with
// automatic reconnection and optional consumer group support.
type StreamConsumer struct {
	client *Client
	config StreamConsumerConfig
	logger *zap.Logger
}

// NewStreamConsumer creates a new stream consumer.
func NewStreamConsumer(client *Client, config StreamConsumerConfig) (*StreamConsumer, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Stream == "" {
		return nil, errors.New("stream name is required")
	}
	if config.Group != "" && config.Consumer == "" {
		return nil, errors.New("consumer name is required when using consumer groups")
	}

	// Apply defaults
	if config.LastID == "" {
		config.LastID = "0"
	}
	if config.Count == 0 {
		config.Count = 100
	}
	if config.Block == 0 {
		config.Block = 5 * time.Second
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 1 * time.Second
	}
	if config.MaxRetryInterval == 0 {
		config.MaxRetryInterval = 30 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StreamConsumer{
		client: client,
		config: config,
		logger: logger.With(zap.String("stream", config.Stream), zap.String("group", config.Group)),
	}, nil
}

// Run starts consuming messages and calls handler for each message.
// Blocks until context is cancelled. Automatically handles reconnection.
func (sc *StreamConsumer) Run(ctx context.Context, handler MessageHandler) error {
	if sc.config.Group != "" {
		if err := sc.client.XGroupCreateMkStream(ctx, sc.config.Stream, sc.config.Group, sc.config.LastID); err != nil {
			return fmt.Errorf("create consumer group: %w", err)
		}
		sc.logger.Info("Consumer group ready", zap.String("consumer", sc.config.Consumer))
	}

	// a group consumer drains its own pending entries ("0") before asking for new ones (">")
	cursor := sc.config.LastID
	if sc.config.Group != "" {
		cursor = "0"
	}
	retryInterval := sc.config.RetryInterval

	backoff := func() error {
		select {
		case <-time.After(retryInterval):
			retryInterval = min(retryInterval*2, sc.config.MaxRetryInterval)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			sc.logger.Info("Stream consumer shutting down")
			return ctx.Err()
		default:
		}

		messages, err := sc.readMessages(ctx, cursor)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, redis.Nil) {
				// No messages available (timeout), continue
				continue
			}

			sc.logger.Warn("Error reading from stream, will retry",
				zap.Error(err),
				zap.Duration("retryIn", retryInterval))
			if err := backoff(); err != nil {
				return err
			}
			continue
		}

		if len(messages) == 0 {
			if cursor == "0" && sc.config.Group != "" {
				cursor = ">"
			}
			continue
		}

		failed := false
		for _, msg := range messages {
			if err := sc.processMessage(ctx, handler, msg); err != nil {
				sc.logger.Error("Error processing message, will redeliver",
					zap.String("id", msg.ID),
					zap.Error(err),
					zap.Duration("retryIn", retryInterval))
				failed = true
				break
			}
			if sc.config.Group == "" {
				cursor = msg.ID
			}
		}

		if failed {
			if sc.config.Group != "" {
				cursor = "0"
			}
			if err := backoff(); err != nil {
				return err
			}
			continue
		}
		retryInterval = sc.config.RetryInterval
	}
}

// readMessages reads a batch of messages from the stream.
func (sc *StreamConsumer) readMessages(ctx context.Context, cursor string) ([]Message, error) {
	var streams []redis.XStream
	var err error

	if sc.config.Group != "" {
		block := sc.config.Block
		if cursor == "0" {
			// pending entries are returned immediately
			block = -1
		}
		streams, err = sc.client.XReadGroup(ctx, sc.config.Group, sc.config.Consumer, sc.config.Stream, cursor, sc.config.Count, block)
	} else {
		streams, err = sc.client.XRead(ctx, sc.config.Stream, cursor, sc.config.Count, sc.config.Block)
	}
	if err != nil {
		return nil, err
	}

	var messages []Message
	for _, stream := range streams {
		for _, xmsg := range stream.Messages {
			messages = append(messages, Message{
				ID:     xmsg.ID,
				Stream: stream.Stream,
				Values: xmsg.Values,
			})
		}
	}
	return messages, nil
}

// processMessage processes a single message and acknowledges it when using a consumer group.
func (sc *StreamConsumer) processMessage(ctx context.Context, handler MessageHandler, msg Message) error {
	if err := handler(ctx, msg); err != nil {
		return err
	}

	if sc.config.Group != "" {
		if _, ackErr := sc.client.XAck(ctx, sc.config.Stream, sc.config.Group, msg.ID); ackErr != nil {
			sc.logger.Warn("Failed to acknowledge message",
				zap.String("id", msg.ID),
				zap.Error(ackErr))
		}
	}
	return nil
}

// GetData is a helper to extract the "data" field from a message.
// Returns nil if not found.
func (m *Message) GetData() []byte {
	if data, ok := m.Values["data"].(string); ok {
		return []byte(data)
	}
	if data, ok := m.Values["data"].([]byte); ok {
		return data
	}
	return nil
}
