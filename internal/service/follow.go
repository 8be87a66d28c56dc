package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/model"
	"snapbee/internal/queue"
	"snapbee/internal/repository"
)

const (
	FollowListDefaultLimit = 20
	FollowListMaxLimit     = 100
)

// FollowService maintains the symmetric follow relation. The repository
// writes both directions and both counters in one unit; the service only
// validates and reports.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	publisher  queue.Publisher
	logger     *zap.Logger
}

// NewFollowService builds the service. publisher may be nil when the event
// stream is disabled.
func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		logger:     logger.With(zap.String("component", "follow_service")),
	}
}

// Follow makes requester follow target. Following twice is an error.
func (s *FollowService) Follow(ctx context.Context, requesterID, targetID int64) (*model.MessageResponse, error) {
	if requesterID == targetID {
		return nil, model.Errorf(model.ErrCannotFollowSelf, "You cannot follow yourself.")
	}

	target, err := s.bothExist(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.followRepo.Follow(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, model.Errorf(model.ErrAlreadyFollowing, "You are already following %s", target.Username)
	}

	s.publish(ctx, queue.UserFollowed(requesterID, targetID))
	s.logger.Info("user followed", zap.Int64("follower_id", requesterID), zap.Int64("followee_id", targetID))

	return &model.MessageResponse{Message: "You are now following " + target.Username}, nil
}

// Unfollow removes the follow edge in both directions.
func (s *FollowService) Unfollow(ctx context.Context, requesterID, targetID int64) (*model.MessageResponse, error) {
	if requesterID == targetID {
		return nil, model.Errorf(model.ErrCannotFollowSelf, "You cannot unfollow yourself.")
	}

	target, err := s.bothExist(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}

	removed, err := s.followRepo.Unfollow(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, model.Errorf(model.ErrNotFollowing, "You are not following %s", target.Username)
	}

	s.publish(ctx, queue.UserUnfollowed(requesterID, targetID))
	s.logger.Info("user unfollowed", zap.Int64("follower_id", requesterID), zap.Int64("followee_id", targetID))

	return &model.MessageResponse{Message: "You have unfollowed " + target.Username}, nil
}

// bothExist returns the target after checking that both users are known.
func (s *FollowService) bothExist(ctx context.Context, requesterID, targetID int64) (*model.User, error) {
	if _, err := s.userRepo.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// ResolveFollowedAuthors returns the ids the user follows.
func (s *FollowService) ResolveFollowedAuthors(ctx context.Context, userID int64) ([]int64, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(ids), nil
}

// GetFollowers lists the users following userID, newest edge first. cursor
// is the RFC 3339 next_cursor of the previous page.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, cursor string, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	return s.list(ctx, userID, cursor, limit, viewerID, s.followRepo.GetFollowers)
}

// GetFollowing lists the users userID follows. See GetFollowers.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, cursor string, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	return s.list(ctx, userID, cursor, limit, viewerID, s.followRepo.GetFollowing)
}

type followPager func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)

func (s *FollowService) list(ctx context.Context, userID int64, cursor string, limit int, viewerID *int64, page followPager) (*model.FollowListResponse, error) {
	if limit <= 0 {
		limit = FollowListDefaultLimit
	}
	if limit > FollowListMaxLimit {
		limit = FollowListMaxLimit
	}

	var after *time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, model.ErrInvalidCursor
		}
		after = &t
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	users, nextCursor, err := page(ctx, userID, after, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339Nano)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      nonNil(users),
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}

// enrichWithFollowStatus batch-checks whether the viewer follows each user.
// A failed check leaves is_following false rather than failing the list.
func (s *FollowService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	userIDs := make([]int64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, userIDs)
	if err != nil {
		s.logger.Warn("follow status check failed", zap.Error(err))
		return users
	}

	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}
	return users
}

func (s *FollowService) publish(ctx context.Context, event queue.Event) {
	publishEvent(ctx, s.publisher, s.logger, event)
}

// publishEvent emits event after the write committed. Failures are logged
// only: the timeline cache is rebuilt from the store on the next miss.
func publishEvent(ctx context.Context, publisher queue.Publisher, logger *zap.Logger, event queue.Event) {
	if publisher == nil {
		return
	}
	msgID, err := publisher.Publish(ctx, event)
	if err != nil {
		logger.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	logger.Debug("event published", zap.String("type", event.Type), zap.String("msg_id", msgID))
}
