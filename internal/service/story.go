package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/model"
	"snapbee/internal/repository"
)

// StoryService manages short-lived stories. Stories older than ttl are not
// listed and are purged by the retention job.
type StoryService struct {
	storyRepo repository.StoryRepository
	userRepo  repository.UserRepository
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewStoryService(storyRepo repository.StoryRepository, userRepo repository.UserRepository, ttl time.Duration, logger *zap.Logger) *StoryService {
	return &StoryService{
		storyRepo: storyRepo,
		userRepo:  userRepo,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "story_service")),
	}
}

func (s *StoryService) Create(ctx context.Context, userID int64, req model.CreateStoryRequest) (*model.Story, error) {
	image := strings.TrimSpace(req.Image)
	if image == "" {
		return nil, model.ErrStoryImageRequired
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	story := &model.Story{
		UserID:  userID,
		Image:   image,
		Caption: req.Caption,
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// GetByUser lists the user's live stories, newest first.
func (s *StoryService) GetByUser(ctx context.Context, userID int64) ([]model.Story, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	stories, err := s.storyRepo.GetByUser(ctx, userID, s.now().Add(-s.ttl))
	if err != nil {
		return nil, err
	}
	return nonNil(stories), nil
}

// PurgeExpired deletes every story older than the ttl.
func (s *StoryService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.storyRepo.DeleteOlderThan(ctx, s.now().Add(-s.ttl))
}
