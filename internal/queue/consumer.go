package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is one delivered stream entry.
type Message struct {
	ID    string
	Event Event
}

// Consumer reads the timeline stream as a member of a consumer group.
type Consumer interface {
	EnsureGroup(ctx context.Context) error
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error)
	ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error)
	Ack(ctx context.Context, messageIDs ...string) error
}

type RedisConsumer struct {
	client *redis.Client
	stream string
	group  string
	logger *zap.Logger
}

func NewConsumer(client *redis.Client, logger *zap.Logger) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		stream: StreamTimeline,
		group:  ConsumerGroupTimeline,
		logger: logger.With(zap.String("component", "consumer")),
	}
}

// EnsureGroup creates the stream and its consumer group, tolerating an
// existing group.
func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Read returns up to count undelivered messages, blocking for at most block.
// Malformed entries are acknowledged and dropped.
func (c *RedisConsumer) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	var malformed []string
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := parseEvent(msg.Values)
			if err != nil {
				c.logger.Warn("dropping malformed message", zap.String("msg_id", msg.ID), zap.Error(err))
				malformed = append(malformed, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	if len(malformed) > 0 {
		if err := c.Ack(ctx, malformed...); err != nil {
			c.logger.Warn("ack malformed messages", zap.Error(err))
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, c.stream, c.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// ReadPending returns messages delivered to consumer but never acknowledged,
// typically left over from a crashed worker.
func (c *RedisConsumer) ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: consumer,
		Streams:  []string{c.stream, "0"},
		Count:    count,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup pending: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := parseEvent(msg.Values)
			if err != nil {
				_ = c.Ack(ctx, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, nil
}
