package model

import (
	"time"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	UserID    int64        `db:"user_id" json:"user_id"`
	Content   string       `db:"content" json:"content"`
	LikeCount int          `db:"like_count" json:"like_count"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	LikedBy   []int64      `db:"-" json:"liked_by"`
	Author    *UserSummary `db:"-" json:"author,omitempty"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// ContentKind names a likeable content type.
type ContentKind string

const (
	ContentPost    ContentKind = "post"
	ContentComment ContentKind = "comment"
)

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound = newError(ErrNotFound, "comment not found")
	ErrNotCommentOwner = newError(ErrForbidden, "not the owner of this comment")
	ErrContentRequired = newError(ErrValidation, "comment content is required")
	ErrContentTooLong  = newError(ErrValidation, "comment content too long")
)
