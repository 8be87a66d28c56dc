package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"snapbee/internal/model"
)

type storyRepository struct {
	db *sqlx.DB
}

func NewStoryRepository(db *sqlx.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, s *model.Story) error {
	query := `
		INSERT INTO stories (user_id, image, caption)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, image, caption, created_at
	`
	if err := r.db.GetContext(ctx, s, query, s.UserID, s.Image, s.Caption); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

func (r *storyRepository) GetByUser(ctx context.Context, userID int64, since time.Time) ([]model.Story, error) {
	stories := []model.Story{}
	err := r.db.SelectContext(ctx, &stories, `
		SELECT id, user_id, image, caption, created_at
		FROM stories
		WHERE user_id = $1 AND created_at > $2
		ORDER BY created_at DESC, id DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("get stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired stories: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}
