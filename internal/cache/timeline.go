package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"snapbee/internal/model"
)

const (
	TimelineKeyPrefix = "timeline:user:"

	// TimelineCap bounds the number of entries kept per user.
	TimelineCap = 500

	TimelineTTL = 7 * 24 * time.Hour
)

// TimelineCache stores each user's feed as post ids scored by creation time.
// It never stores post bodies or like-sets; readers hydrate from the store.
type TimelineCache interface {
	// Push adds entries and trims the timeline to TimelineCap.
	Push(ctx context.Context, userID int64, entries ...model.TimelineEntry) error
	Remove(ctx context.Context, userID int64, postIDs ...int64) error
	// Page returns up to limit entries newest first, strictly older than
	// before when it is set.
	Page(ctx context.Context, userID int64, before *int64, limit int) ([]model.TimelineEntry, error)
	// Exists reports whether the user's timeline is cached. A missing
	// timeline must be warmed from the store before it is read.
	Exists(ctx context.Context, userID int64) (bool, error)
	// Len returns the number of cached entries. A timeline at TimelineCap
	// has been trimmed and no longer reaches the oldest posts.
	Len(ctx context.Context, userID int64) (int64, error)
}

// RedisTimelineCache implements TimelineCache using Redis sorted sets.
type RedisTimelineCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewTimelineCache(client *redis.Client, logger *zap.Logger) *RedisTimelineCache {
	return &RedisTimelineCache{
		client: client,
		logger: logger.With(zap.String("component", "timeline_cache")),
	}
}

func timelineKey(userID int64) string {
	return TimelineKeyPrefix + strconv.FormatInt(userID, 10)
}

// Push pipelines ZADD, the cap trim and the TTL refresh.
func (c *RedisTimelineCache) Push(ctx context.Context, userID int64, entries ...model.TimelineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	key := timelineKey(userID)

	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: float64(e.Score), Member: strconv.FormatInt(e.PostID, 10)}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	// rank 0 is the oldest entry; keep the newest TimelineCap
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, key, TimelineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push timeline entries: %w", err)
	}

	c.logger.Debug("timeline push", zap.Int64("user_id", userID), zap.Int("entries", len(entries)))
	return nil
}

func (c *RedisTimelineCache) Remove(ctx context.Context, userID int64, postIDs ...int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = strconv.FormatInt(id, 10)
	}
	if err := c.client.ZRem(ctx, timelineKey(userID), members...).Err(); err != nil {
		return fmt.Errorf("remove timeline entries: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) Page(ctx context.Context, userID int64, before *int64, limit int) ([]model.TimelineEntry, error) {
	key := timelineKey(userID)

	upper := "+inf"
	if before != nil {
		upper = "(" + strconv.FormatInt(*before, 10)
	}
	results, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   upper,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}

	if err := c.client.Expire(ctx, key, TimelineTTL).Err(); err != nil {
		c.logger.Warn("refresh timeline ttl", zap.Int64("user_id", userID), zap.Error(err))
	}

	entries := make([]model.TimelineEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			return nil, errors.New("unexpected timeline member type")
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timeline member %q: %w", member, err)
		}
		entries = append(entries, model.TimelineEntry{PostID: id, Score: int64(z.Score)})
	}
	return entries, nil
}

func (c *RedisTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, timelineKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check timeline exists: %w", err)
	}
	return n > 0, nil
}

func (c *RedisTimelineCache) Len(ctx context.Context, userID int64) (int64, error) {
	n, err := c.client.ZCard(ctx, timelineKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count timeline entries: %w", err)
	}
	return n, nil
}
