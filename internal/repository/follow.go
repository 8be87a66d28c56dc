package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapbee/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow relies on the (follower_id, followee_id) primary key: of two
// concurrent inserts for the same pair exactly one affects a row.
func (r *followRepository) Follow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var inserted bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO follows (follower_id, followee_id)
			VALUES ($1, $2)
			ON CONFLICT (follower_id, followee_id) DO NOTHING
		`, followerID, followeeID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("insert follow: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		inserted = true
		return adjustFollowCounts(ctx, tx, followerID, followeeID, 1)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var removed bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		removed = true
		return adjustFollowCounts(ctx, tx, followerID, followeeID, -1)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func adjustFollowCounts(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64, delta int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + $1 WHERE id = $2`, delta, followerID); err != nil {
		return fmt.Errorf("update following count: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET follower_count = follower_count + $1 WHERE id = $2`, delta, followeeID); err != nil {
		return fmt.Errorf("update follower count: %w", err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("check follow existence: %w", err)
	}
	return exists, nil
}

// GetFollowers pages the users following userID, newest edge first.
// The cursor is the created_at of the last edge of the previous page; one
// extra row is fetched to know whether another page exists.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.page(ctx, "f.follower_id", "f.followee_id", userID, cursor, limit)
}

func (r *followRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.page(ctx, "f.followee_id", "f.follower_id", userID, cursor, limit)
}

func (r *followRepository) page(ctx context.Context, joinCol, filterCol string, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	query := `
		SELECT u.id, u.username, u.name, u.image, f.created_at
		FROM follows f
		JOIN users u ON u.id = ` + joinCol + `
		WHERE ` + filterCol + ` = $1 AND ($2::timestamptz IS NULL OR f.created_at < $2)
		ORDER BY f.created_at DESC
		LIMIT $3
	`

	type userWithTime struct {
		model.UserSummary
		CreatedAt time.Time `db:"created_at"`
	}

	var results []userWithTime
	if err := r.db.SelectContext(ctx, &results, query, userID, cursor, limit+1); err != nil {
		return nil, nil, fmt.Errorf("list follow edges: %w", err)
	}

	var nextCursor *time.Time
	if len(results) > limit {
		results = results[:limit]
		nextCursor = &results[len(results)-1].CreatedAt
	}

	users := make([]model.UserSummary, 0, len(results))
	for _, result := range results {
		users = append(users, result.UserSummary)
	}
	return users, nextCursor, nil
}

func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(followeeIDs))
	if len(followeeIDs) == 0 {
		return result, nil
	}

	var followedIDs []int64
	err := r.db.SelectContext(ctx, &followedIDs,
		`SELECT followee_id FROM follows WHERE follower_id = $1 AND followee_id = ANY($2)`,
		followerID, pq.Array(followeeIDs))
	if err != nil {
		return nil, fmt.Errorf("check follows: %w", err)
	}

	for _, id := range followeeIDs {
		result[id] = false
	}
	for _, id := range followedIDs {
		result[id] = true
	}
	return result, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get follower ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get followee ids: %w", err)
	}
	return ids, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
