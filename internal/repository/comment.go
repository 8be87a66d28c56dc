package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"snapbee/internal/model"
)

const commentColumns = `id, post_id, user_id, content, like_count, created_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the post's comment count. The post
// row is locked so the comment cannot be attached to a post being deleted.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var postID int64
		if err := tx.GetContext(ctx, &postID, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, c.PostID); err != nil {
			return notFoundOr(err, model.ErrPostNotFound, "lock post")
		}

		query := `
			INSERT INTO comments (post_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING ` + commentColumns
		if err := tx.GetContext(ctx, c, query, c.PostID, c.UserID, c.Content); err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("insert comment: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`, c.PostID); err != nil {
			return fmt.Errorf("increment comment count: %w", err)
		}
		return nil
	})
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	var c model.Comment
	err := r.db.GetContext(ctx, &c, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return nil, notFoundOr(err, model.ErrCommentNotFound, "get comment")
	}
	return &c, nil
}

func (r *commentRepository) GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, fmt.Errorf("get comments by post: %w", err)
	}
	return comments, nil
}

// Update changes a comment's content. Only the owner can update.
func (r *commentRepository) Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error) {
	var c model.Comment
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ownerID int64
		err := tx.GetContext(ctx, &ownerID, `SELECT user_id FROM comments WHERE id = $1 FOR UPDATE`, commentID)
		if err != nil {
			return notFoundOr(err, model.ErrCommentNotFound, "lock comment")
		}
		if ownerID != userID {
			return model.ErrNotCommentOwner
		}

		err = tx.GetContext(ctx, &c,
			`UPDATE comments SET content = $1 WHERE id = $2 RETURNING `+commentColumns, content, commentID)
		if err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the comment with its likes and decrements the post's
// comment count.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID int64) (int64, error) {
	var postID int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var comment struct {
			PostID int64 `db:"post_id"`
			UserID int64 `db:"user_id"`
		}
		err := tx.GetContext(ctx, &comment,
			`SELECT post_id, user_id FROM comments WHERE id = $1 FOR UPDATE`, commentID)
		if err != nil {
			return notFoundOr(err, model.ErrCommentNotFound, "lock comment")
		}
		if comment.UserID != userID {
			return model.ErrNotCommentOwner
		}
		postID = comment.PostID

		if _, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = $1`, commentID); err != nil {
			return fmt.Errorf("delete comment likes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, postID); err != nil {
			return fmt.Errorf("decrement comment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return postID, nil
}
