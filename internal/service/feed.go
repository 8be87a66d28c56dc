package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/cache"
	"snapbee/internal/model"
	"snapbee/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of posts per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of posts per page
	FeedMaxLimit = 50

	// timelineSlack is read past the page size so that entries of posts
	// deleted since fan-out do not shorten the page.
	timelineSlack = 16
)

// FeedService assembles a user's home feed from the posts of the users they
// follow and their own. When a timeline cache is configured the post order
// comes from it; post bodies are always read from the store.
type FeedService struct {
	timelines  cache.TimelineCache
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	posts      *PostService
	logger     *zap.Logger
}

// NewFeedService builds the service. timelines may be nil, in which case the
// feed is read straight from the store.
func NewFeedService(timelines cache.TimelineCache, store *repository.Store, posts *PostService, logger *zap.Logger) *FeedService {
	return &FeedService{
		timelines:  timelines,
		postRepo:   store.Posts,
		followRepo: store.Follows,
		userRepo:   store.Users,
		posts:      posts,
		logger:     logger.With(zap.String("component", "feed_service")),
	}
}

// GetFeed returns one page of the feed, newest first. cursor is the
// next_cursor of the previous page.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursor string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	var after *model.PostCursor
	if cursor != "" {
		c, err := model.ParsePostCursor(cursor)
		if err != nil {
			return nil, err
		}
		after = c
	}

	authors, err := s.authors(ctx, userID)
	if err != nil {
		return nil, err
	}

	var posts []model.Post
	cached := false
	if s.timelines != nil {
		posts, err = s.fromTimeline(ctx, userID, authors, after, limit+1)
		if err != nil {
			s.logger.Warn("timeline read failed, reading from store", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			cached = true
		}
	}
	if !cached {
		posts, err = s.postRepo.GetByOwners(ctx, authors, after, limit+1)
		if err != nil {
			return nil, fmt.Errorf("get feed posts: %w", err)
		}
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}
	if err := s.posts.hydrateSlice(ctx, posts, &userID); err != nil {
		return nil, err
	}

	var nextCursor *string
	if hasMore {
		last := posts[len(posts)-1]
		c := model.PostCursor{CreatedAt: last.CreatedAt, ID: last.ID}.String()
		nextCursor = &c
	}

	s.logger.Debug("feed served",
		zap.Int64("user_id", userID),
		zap.Int("posts", len(posts)),
		zap.Bool("has_more", hasMore),
		zap.Duration("duration", time.Since(startTime)))

	return &model.FeedResponse{
		Posts:      nonNil(posts),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// authors is the user's followees plus the user.
func (s *FeedService) authors(ctx context.Context, userID int64) ([]int64, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	followees, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followee ids: %w", err)
	}
	return append(followees, userID), nil
}

// fromTimeline reads up to n posts past after from the cached timeline,
// warming it from the store first when it is missing.
func (s *FeedService) fromTimeline(ctx context.Context, userID int64, authors []int64, after *model.PostCursor, n int) ([]model.Post, error) {
	exists, err := s.timelines.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.warm(ctx, userID, authors); err != nil {
			return nil, err
		}
	}

	var before *int64
	if after != nil {
		// inclusive of the cursor's own microsecond; ties are filtered below
		b := after.CreatedAt.UnixMicro() + 1
		before = &b
	}
	want := n + timelineSlack
	entries, err := s.timelines.Page(ctx, userID, before, want)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if after != nil && e.Score == after.CreatedAt.UnixMicro() && e.PostID >= after.ID {
			continue
		}
		ids = append(ids, e.PostID)
	}
	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > n {
		posts = posts[:n]
	}

	if len(posts) < n {
		short, err := s.timelineShort(ctx, userID, len(entries) == want)
		if err != nil {
			return nil, err
		}
		if short {
			s.logger.Debug("timeline page short, reading from store",
				zap.Int64("user_id", userID),
				zap.Int("entries", len(entries)),
				zap.Int("live", len(posts)))
			return s.postRepo.GetByOwners(ctx, authors, after, n)
		}
	}
	return posts, nil
}

// timelineShort reports whether a page with fewer live posts than asked for
// may be hiding older posts: the read was full, so entries of deleted posts
// crowded out live ones, or the timeline was trimmed at TimelineCap.
func (s *FeedService) timelineShort(ctx context.Context, userID int64, readFull bool) (bool, error) {
	if readFull {
		return true, nil
	}
	size, err := s.timelines.Len(ctx, userID)
	if err != nil {
		return false, err
	}
	return size >= cache.TimelineCap, nil
}

func (s *FeedService) warm(ctx context.Context, userID int64, authors []int64) error {
	startTime := time.Now()

	entries, err := s.postRepo.GetTimelineEntries(ctx, authors, cache.TimelineCap)
	if err != nil {
		return fmt.Errorf("get timeline entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if err := s.timelines.Push(ctx, userID, entries...); err != nil {
		return err
	}

	s.logger.Info("timeline warmed",
		zap.Int64("user_id", userID),
		zap.Int("posts", len(entries)),
		zap.Duration("duration", time.Since(startTime)))
	return nil
}
