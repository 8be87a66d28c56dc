package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"snapbee/internal/model"
	"snapbee/internal/queue"
	"snapbee/internal/repository"
)

type PostService struct {
	postRepo   repository.PostRepository
	likeRepo   repository.LikeRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	publisher  queue.Publisher
	logger     *zap.Logger
}

func NewPostService(store *repository.Store, publisher queue.Publisher, logger *zap.Logger) *PostService {
	return &PostService{
		postRepo:   store.Posts,
		likeRepo:   store.PostLikes,
		userRepo:   store.Users,
		followRepo: store.Follows,
		publisher:  publisher,
		logger:     logger.With(zap.String("component", "post_service")),
	}
}

// Create stores a post owned by userID and publishes it for fan-out.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	if blank(req.Caption) && blank(req.Image) {
		return nil, model.ErrEmptyPost
	}
	if req.Caption != nil && len(*req.Caption) > model.MaxPostCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	post := &model.Post{
		UserID:   userID,
		Caption:  req.Caption,
		Image:    req.Image,
		Location: req.Location,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, queue.PostCreated(post.ID, userID, post.CreatedAt))
	s.logger.Info("post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", userID))

	if err := s.hydrate(ctx, []*model.Post{post}, &userID); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns a single post with its like-set, comment ids and, for an
// authenticated viewer, like and save status.
func (s *PostService) Get(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*model.Post{post}, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

// GetByOwner lists a user's posts, newest first.
func (s *PostService) GetByOwner(ctx context.Context, ownerID int64, viewerID *int64) ([]model.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.GetByOwners(ctx, []int64{ownerID}, viewerID)
}

// GetByOwners lists the posts of every owner in ownerIDs, newest first.
func (s *PostService) GetByOwners(ctx context.Context, ownerIDs []int64, viewerID *int64) ([]model.Post, error) {
	if len(ownerIDs) == 0 {
		return []model.Post{}, nil
	}
	posts, err := s.postRepo.GetByOwners(ctx, ownerIDs, nil, model.MaxPostsByOwners)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateSlice(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetSaved lists the posts in the user's save-set, most recently saved first.
func (s *PostService) GetSaved(ctx context.Context, userID int64) ([]model.Post, error) {
	ids, err := s.postRepo.SavedPostIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Post{}, nil
	}
	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateSlice(ctx, posts, &userID); err != nil {
		return nil, err
	}
	return posts, nil
}

// Like adds userID to the post's like-set. Liking twice is a no-op.
func (s *PostService) Like(ctx context.Context, postID, userID int64) (*model.Post, error) {
	return s.toggleLike(ctx, postID, userID, true)
}

// Unlike removes userID from the post's like-set. Unliking a post that was
// never liked is a no-op.
func (s *PostService) Unlike(ctx context.Context, postID, userID int64) (*model.Post, error) {
	return s.toggleLike(ctx, postID, userID, false)
}

func (s *PostService) toggleLike(ctx context.Context, postID, userID int64, like bool) (*model.Post, error) {
	post, err := toggleLike(ctx, s.userRepo, s.likeRepo, s.postRepo.GetByID, postID, userID, like)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*model.Post{post}, &userID); err != nil {
		return nil, err
	}
	return post, nil
}

// Save adds the post to the user's save-set. Saving twice is an error.
func (s *PostService) Save(ctx context.Context, postID, userID int64) (*model.MessageResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	saved, err := s.postRepo.Save(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, model.Errorf(model.ErrAlreadySaved, "Post is already saved")
	}
	return &model.MessageResponse{Message: "Post is successfully saved"}, nil
}

// Unsave removes the post from the user's save-set. It is an error when the
// post was not saved.
func (s *PostService) Unsave(ctx context.Context, postID, userID int64) (*model.MessageResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	removed, err := s.postRepo.Unsave(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, model.Errorf(model.ErrNotSaved, "Post was not saved")
	}
	return &model.MessageResponse{Message: "Post has been unsaved successfully"}, nil
}

// Delete removes a post owned by userID, together with its likes, comments
// and every save-set entry, and publishes the removal for fan-out.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) (*model.MessageResponse, error) {
	if err := s.postRepo.DeleteOwned(ctx, postID, userID); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, queue.PostDeleted(postID, userID))
	s.logger.Info("post deleted", zap.Int64("post_id", postID), zap.Int64("user_id", userID))

	return &model.MessageResponse{Message: "Post deleted successfully"}, nil
}

func (s *PostService) hydrateSlice(ctx context.Context, posts []model.Post, viewerID *int64) error {
	ptrs := make([]*model.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	return s.hydrate(ctx, ptrs, viewerID)
}

// hydrate fills like-sets, comment ids and authors with one batch query per
// concern, plus the viewer's like and save status when viewerID is set.
func (s *PostService) hydrate(ctx context.Context, posts []*model.Post, viewerID *int64) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	authorSet := make(map[int64]struct{})
	var authorIDs []int64
	for i, p := range posts {
		postIDs[i] = p.ID
		if _, seen := authorSet[p.UserID]; !seen {
			authorSet[p.UserID] = struct{}{}
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	likedBy, err := s.likeRepo.LikedBy(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("get post likes: %w", err)
	}
	commentIDs, err := s.postRepo.CommentIDs(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("get comment ids: %w", err)
	}
	authors, err := s.userRepo.GetByIDs(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("get authors: %w", err)
	}
	authorByID := make(map[int64]model.UserSummary, len(authors))
	for i := range authors {
		authorByID[authors[i].ID] = authors[i].Summary()
	}

	var saved, following map[int64]bool
	if viewerID != nil {
		if saved, err = s.postRepo.CheckSaved(ctx, *viewerID, postIDs); err != nil {
			s.logger.Warn("save status check failed", zap.Error(err))
		}
		if following, err = s.followRepo.CheckFollows(ctx, *viewerID, authorIDs); err != nil {
			s.logger.Warn("follow status check failed", zap.Error(err))
		}
	}

	for _, p := range posts {
		p.LikedBy = nonNil(likedBy[p.ID])
		p.CommentIDs = nonNil(commentIDs[p.ID])
		if author, ok := authorByID[p.UserID]; ok {
			author.IsFollowing = following[p.UserID]
			p.Author = &author
		}
		if viewerID != nil {
			p.IsLiked = p.HasLike(*viewerID)
			p.IsSaved = saved[p.ID]
		}
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
