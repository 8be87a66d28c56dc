package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapbee/internal/model"
)

// likeTable describes where one content kind keeps its like-set.
type likeTable struct {
	likes    string // like-set table
	targetFK string // column in likes referencing the target
	targets  string // table holding the like_count counter
	notFound error
}

var (
	postLikes = likeTable{
		likes:    "post_likes",
		targetFK: "post_id",
		targets:  "posts",
		notFound: model.ErrPostNotFound,
	}
	commentLikes = likeTable{
		likes:    "comment_likes",
		targetFK: "comment_id",
		targets:  "comments",
		notFound: model.ErrCommentNotFound,
	}
)

// likeRepository implements LikeRepository for any content kind.
type likeRepository struct {
	db    *sqlx.DB
	table likeTable
}

func NewPostLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db, table: postLikes}
}

func NewCommentLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db, table: commentLikes}
}

func (r *likeRepository) Add(ctx context.Context, targetID, userID int64) (bool, error) {
	var added bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Lock the target row so the insert and the counter bump are
		// serialized against a concurrent delete of the target.
		var id int64
		err := tx.GetContext(ctx, &id,
			`SELECT id FROM `+r.table.targets+` WHERE id = $1 FOR UPDATE`, targetID)
		if err != nil {
			return notFoundOr(err, r.table.notFound, "lock like target")
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO `+r.table.likes+` (`+r.table.targetFK+`, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, targetID, userID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		added = true
		return r.bump(ctx, tx, targetID, 1)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *likeRepository) Remove(ctx context.Context, targetID, userID int64) (bool, error) {
	var removed bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM `+r.table.likes+` WHERE `+r.table.targetFK+` = $1 AND user_id = $2`, targetID, userID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		removed = true
		return r.bump(ctx, tx, targetID, -1)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *likeRepository) bump(ctx context.Context, tx *sqlx.Tx, targetID int64, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE `+r.table.targets+` SET like_count = GREATEST(like_count + $1, 0) WHERE id = $2`, delta, targetID)
	if err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	return nil
}

func (r *likeRepository) LikedBy(ctx context.Context, targetIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return result, nil
	}

	type row struct {
		TargetID int64 `db:"target_id"`
		UserID   int64 `db:"user_id"`
	}
	var rows []row
	query := `
		SELECT ` + r.table.targetFK + ` AS target_id, user_id
		FROM ` + r.table.likes + `
		WHERE ` + r.table.targetFK + ` = ANY($1)
		ORDER BY created_at, user_id
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(targetIDs)); err != nil {
		return nil, fmt.Errorf("get likers: %w", err)
	}

	for _, id := range targetIDs {
		result[id] = []int64{}
	}
	for _, row := range rows {
		result[row.TargetID] = append(result[row.TargetID], row.UserID)
	}
	return result, nil
}
