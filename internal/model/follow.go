package model

import (
	"time"
)

type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	Name        string  `db:"name" json:"name"`
	Image       *string `db:"image" json:"image"`
	IsFollowing bool    `json:"is_following"`
}

type FollowListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// MessageResponse is the confirmation body returned by state transitions.
type MessageResponse struct {
	Message string `json:"message"`
}

var (
	ErrAlreadyFollowing = newError(ErrConflict, "already following this user")
	ErrNotFollowing     = newError(ErrConflict, "not following this user")
	ErrCannotFollowSelf = newError(ErrConflict, "cannot follow yourself")
)
