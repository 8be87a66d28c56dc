package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"snapbee/internal/cache"
	"snapbee/internal/model"
	"snapbee/internal/queue"
)

const (
	// followBackfillLimit is how many of the followee's posts are copied into
	// the follower's timeline on follow.
	followBackfillLimit = 20
	// unfollowPruneLimit bounds how many of the followee's posts are looked up
	// for removal on unfollow.
	unfollowPruneLimit = cache.TimelineCap
)

// FollowerLister lists the followers of a user.
type FollowerLister interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// EntrySource returns the newest posts of a set of authors as timeline entries.
type EntrySource interface {
	GetTimelineEntries(ctx context.Context, ownerIDs []int64, limit int) ([]model.TimelineEntry, error)
}

// Handler replays stream events onto the cached timelines.
type Handler struct {
	timelines cache.TimelineCache
	followers FollowerLister
	entries   EntrySource
	logger    *zap.Logger
}

func NewHandler(timelines cache.TimelineCache, followers FollowerLister, entries EntrySource, logger *zap.Logger) *Handler {
	return &Handler{
		timelines: timelines,
		followers: followers,
		entries:   entries,
		logger:    logger.With(zap.String("component", "timeline_handler")),
	}
}

// HandleEvent routes an event to the handler for its type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	switch event.Type {
	case queue.EventPostCreated:
		return h.fanOut(ctx, event, func(userID int64) error {
			return h.timelines.Push(ctx, userID, model.TimelineEntry{PostID: event.PostID, Score: event.At})
		})
	case queue.EventPostDeleted:
		return h.fanOut(ctx, event, func(userID int64) error {
			return h.timelines.Remove(ctx, userID, event.PostID)
		})
	case queue.EventUserFollowed:
		return h.backfill(ctx, event)
	case queue.EventUserUnfollowed:
		return h.prune(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// fanOut applies fn to the author's timeline and every follower's timeline.
// A failure on one timeline does not stop the others.
func (h *Handler) fanOut(ctx context.Context, event queue.Event, fn func(userID int64) error) error {
	followers, err := h.followers.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	failed := 0
	for _, userID := range append(followers, event.AuthorID) {
		if err := fn(userID); err != nil {
			h.logger.Warn("timeline update failed",
				zap.String("type", event.Type),
				zap.Int64("user_id", userID),
				zap.Int64("post_id", event.PostID),
				zap.Error(err),
			)
			failed++
		}
	}

	h.logger.Debug("fan-out done",
		zap.String("type", event.Type),
		zap.Int64("post_id", event.PostID),
		zap.Int("timelines", len(followers)+1),
		zap.Int("failed", failed),
	)
	return nil
}

func (h *Handler) backfill(ctx context.Context, event queue.Event) error {
	entries, err := h.entries.GetTimelineEntries(ctx, []int64{event.FolloweeID}, followBackfillLimit)
	if err != nil {
		return fmt.Errorf("get followee posts: %w", err)
	}
	if err := h.timelines.Push(ctx, event.FollowerID, entries...); err != nil {
		return fmt.Errorf("backfill timeline: %w", err)
	}
	return nil
}

func (h *Handler) prune(ctx context.Context, event queue.Event) error {
	entries, err := h.entries.GetTimelineEntries(ctx, []int64{event.FolloweeID}, unfollowPruneLimit)
	if err != nil {
		return fmt.Errorf("get followee posts: %w", err)
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}
	if err := h.timelines.Remove(ctx, event.FollowerID, ids...); err != nil {
		return fmt.Errorf("prune timeline: %w", err)
	}
	return nil
}
