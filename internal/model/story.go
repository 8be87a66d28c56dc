package model

import (
	"time"
)

// Story is a short-lived image post. Stories older than the configured TTL
// are removed by the retention job.
type Story struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Image     string    `db:"image" json:"image"`
	Caption   *string   `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

type CreateStoryRequest struct {
	Image   string  `json:"image"`
	Caption *string `json:"caption"`
}

var (
	ErrStoryImageRequired = newError(ErrValidation, "story image is required")
	ErrStoryNotFound      = newError(ErrNotFound, "story not found")
)
