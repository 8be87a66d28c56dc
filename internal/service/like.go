package service

import (
	"context"

	"snapbee/internal/repository"
)

// toggleLike is the like/unlike algorithm shared by every likeable content
// kind. Both directions are idempotent: the like-set only changes when the
// user's membership actually flips, and the target is re-read afterwards.
func toggleLike[T any](
	ctx context.Context,
	users repository.UserRepository,
	likes repository.LikeRepository,
	load func(ctx context.Context, id int64) (*T, error),
	targetID, userID int64,
	like bool,
) (*T, error) {
	if _, err := users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := load(ctx, targetID); err != nil {
		return nil, err
	}

	var err error
	if like {
		_, err = likes.Add(ctx, targetID, userID)
	} else {
		_, err = likes.Remove(ctx, targetID, userID)
	}
	if err != nil {
		return nil, err
	}

	return load(ctx, targetID)
}
