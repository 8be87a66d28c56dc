package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"snapbee/internal/model"
	"snapbee/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	logger      *zap.Logger
}

func NewCommentService(store *repository.Store, logger *zap.Logger) *CommentService {
	return &CommentService{
		commentRepo: store.Comments,
		likeRepo:    store.CommentLikes,
		postRepo:    store.Posts,
		userRepo:    store.Users,
		logger:      logger.With(zap.String("component", "comment_service")),
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if len(content) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}

// Create adds a comment by userID to postID. The repository inserts the
// comment and appends it to the post in one unit.
func (s *CommentService) Create(ctx context.Context, postID, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID))

	if err := s.hydrate(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Get(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByPost returns a post's comments in creation order.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	ptrs := make([]*model.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}
	if err := s.hydrate(ctx, ptrs); err != nil {
		return nil, err
	}
	return nonNil(comments), nil
}

func (s *CommentService) Like(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
	return s.toggleLike(ctx, commentID, userID, true)
}

func (s *CommentService) Unlike(ctx context.Context, commentID, userID int64) (*model.Comment, error) {
	return s.toggleLike(ctx, commentID, userID, false)
}

func (s *CommentService) toggleLike(ctx context.Context, commentID, userID int64, like bool) (*model.Comment, error) {
	comment, err := toggleLike(ctx, s.userRepo, s.likeRepo, s.commentRepo.GetByID, commentID, userID, like)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update replaces the content of a comment owned by userID.
func (s *CommentService) Update(ctx context.Context, commentID, userID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.Update(ctx, commentID, userID, content)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment owned by userID and decrements its post's counter.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) (*model.MessageResponse, error) {
	postID, err := s.commentRepo.Delete(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("comment deleted",
		zap.Int64("comment_id", commentID),
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID))
	return &model.MessageResponse{Message: "Comment deleted successfully"}, nil
}

func (s *CommentService) hydrate(ctx context.Context, comments []*model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]int64, len(comments))
	authorSet := make(map[int64]struct{})
	var authorIDs []int64
	for i, c := range comments {
		ids[i] = c.ID
		if _, seen := authorSet[c.UserID]; !seen {
			authorSet[c.UserID] = struct{}{}
			authorIDs = append(authorIDs, c.UserID)
		}
	}

	likedBy, err := s.likeRepo.LikedBy(ctx, ids)
	if err != nil {
		return fmt.Errorf("get comment likes: %w", err)
	}
	authors, err := s.userRepo.GetByIDs(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("get authors: %w", err)
	}
	authorByID := make(map[int64]model.UserSummary, len(authors))
	for i := range authors {
		authorByID[authors[i].ID] = authors[i].Summary()
	}

	for _, c := range comments {
		c.LikedBy = nonNil(likedBy[c.ID])
		if author, ok := authorByID[c.UserID]; ok {
			c.Author = &author
		}
	}
	return nil
}
