package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher appends events to the timeline stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewPublisher creates a Publisher for the timeline stream. The stream is
// trimmed to roughly maxLen entries on every append.
func NewPublisher(client *redis.Client, maxLen int64, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: StreamTimeline,
		maxLen: maxLen,
		logger: logger.With(zap.String("component", "publisher")),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) (string, error) {
	values, err := event.values()
	if err != nil {
		return "", err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	p.logger.Debug("event published",
		zap.String("type", event.Type),
		zap.String("msg_id", id),
	)
	return id, nil
}
