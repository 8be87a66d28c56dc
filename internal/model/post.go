package model

import (
	"time"
)

// Post represents a user's post with its engagement state.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Caption      *string   `db:"caption" json:"caption"`
	Image        *string   `db:"image" json:"image"`
	Location     *string   `db:"location" json:"location"`
	LikeCount    int       `db:"like_count" json:"like_count"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in posts table)
	LikedBy    []int64      `db:"-" json:"liked_by"`
	CommentIDs []int64      `db:"-" json:"comment_ids"`
	Author     *UserSummary `db:"-" json:"author,omitempty"`
	IsLiked    bool         `db:"-" json:"is_liked"`
	IsSaved    bool         `db:"-" json:"is_saved"`
}

// HasLike reports whether userID is in the like-set.
func (p *Post) HasLike(userID int64) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Caption  *string `json:"caption"`
	Image    *string `json:"image"`
	Location *string `json:"location"`
}

// FeedResponse is the paginated feed response.
type FeedResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Post constants
const (
	MaxPostCaptionLength = 2200
	MaxPostsByOwners     = 500
)

// Post errors
var (
	ErrPostNotFound   = newError(ErrNotFound, "post not found")
	ErrNotPostOwner   = newError(ErrForbidden, "You are not authorized to delete this post")
	ErrCaptionTooLong = newError(ErrValidation, "caption too long")
	ErrEmptyPost      = newError(ErrValidation, "a post needs an image or a caption")
	ErrAlreadySaved   = newError(ErrConflict, "post is already saved")
	ErrNotSaved       = newError(ErrConflict, "post was not saved")
)
