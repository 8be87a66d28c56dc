package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"snapbee/internal/model"
)

// Every mutating method below is one atomic unit: it either applies all of
// its writes (edges, counters, cascades) or none of them.

type UserRepository interface {
	// Create inserts u and fills its generated fields. A duplicate email or
	// username yields model.ErrEmailExists / model.ErrUsernameExists.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Search matches username or email containing query, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	// Update persists the profile fields of u.
	Update(ctx context.Context, u *model.User) error
}

type FollowRepository interface {
	// Follow inserts the edge and bumps both counters. inserted is false when
	// the edge already existed, in which case nothing was written.
	Follow(ctx context.Context, followerID, followeeID int64) (inserted bool, err error)
	// Unfollow removes the edge and decrements both counters. removed is
	// false when there was no edge.
	Unfollow(ctx context.Context, followerID, followeeID int64) (removed bool, err error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
}

// LikeRepository maintains the like-set of one content kind.
type LikeRepository interface {
	// Add puts userID in the like-set of targetID. added is false when it was
	// already there. A missing target yields the kind's not-found error.
	Add(ctx context.Context, targetID, userID int64) (added bool, err error)
	// Remove takes userID out of the like-set. removed is false when it was
	// not there.
	Remove(ctx context.Context, targetID, userID int64) (removed bool, err error)
	// LikedBy returns the like-set of every target, keyed by target id.
	LikedBy(ctx context.Context, targetIDs []int64) (map[int64][]int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// GetByIDs preserves the order of postIDs and skips missing posts.
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	// GetByOwners lists posts of ownerIDs, newest first, strictly after
	// cursor when it is set.
	GetByOwners(ctx context.Context, ownerIDs []int64, cursor *model.PostCursor, limit int) ([]model.Post, error)
	// DeleteOwned removes the post if userID owns it, together with its
	// likes, comments and every save-set entry.
	DeleteOwned(ctx context.Context, postID, userID int64) error
	GetTimelineEntries(ctx context.Context, ownerIDs []int64, limit int) ([]model.TimelineEntry, error)
	CommentIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error)

	// Save inserts postID in the user's save-set. saved is false when it
	// was already present. A missing post yields model.ErrPostNotFound.
	Save(ctx context.Context, userID, postID int64) (saved bool, err error)
	Unsave(ctx context.Context, userID, postID int64) (removed bool, err error)
	SavedPostIDs(ctx context.Context, userID int64) ([]int64, error)
	CheckSaved(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}

type CommentRepository interface {
	// Create inserts the comment and appends it to its post in one unit.
	// A missing post yields model.ErrPostNotFound.
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	// GetByPostID lists a post's comments in creation order.
	GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error)
	Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error)
	// Delete removes the comment if userID owns it and returns its post id.
	Delete(ctx context.Context, commentID, userID int64) (postID int64, err error)
}

type StoryRepository interface {
	Create(ctx context.Context, s *model.Story) error
	// GetByUser lists the user's stories created after since, newest first.
	GetByUser(ctx context.Context, userID int64, since time.Time) ([]model.Story, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles the repositories of one storage driver.
type Store struct {
	Users        UserRepository
	Follows      FollowRepository
	Posts        PostRepository
	PostLikes    LikeRepository
	Comments     CommentRepository
	CommentLikes LikeRepository
	Stories      StoryRepository
}

// NewPostgresStore wires the sqlx repositories.
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Follows:      NewFollowRepository(db),
		Posts:        NewPostRepository(db),
		PostLikes:    NewPostLikeRepository(db),
		Comments:     NewCommentRepository(db),
		CommentLikes: NewCommentLikeRepository(db),
		Stories:      NewStoryRepository(db),
	}
}
