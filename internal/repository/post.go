package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapbee/internal/model"
)

const postColumns = `id, user_id, caption, image, location, like_count, comment_count, created_at, updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post and bumps the owner's post count in one transaction.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO posts (user_id, caption, image, location)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + postColumns
		if err := tx.GetContext(ctx, p, query, p.UserID, p.Caption, p.Image, p.Location); err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("insert post: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET post_count = post_count + 1 WHERE id = $1`, p.UserID); err != nil {
			return fmt.Errorf("increment post count: %w", err)
		}
		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	if err != nil {
		return nil, notFoundOr(err, model.ErrPostNotFound, "get post")
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts, re-ordered to match postIDs.
// Used for hydrating the feed from cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts WHERE id = ANY($1)`, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *postRepository) GetByOwners(ctx context.Context, ownerIDs []int64, cursor *model.PostCursor, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	if len(ownerIDs) == 0 {
		return posts, nil
	}

	var err error
	if cursor == nil {
		err = r.db.SelectContext(ctx, &posts, `
			SELECT `+postColumns+`
			FROM posts
			WHERE user_id = ANY($1)
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, pq.Array(ownerIDs), limit)
	} else {
		err = r.db.SelectContext(ctx, &posts, `
			SELECT `+postColumns+`
			FROM posts
			WHERE user_id = ANY($1) AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, pq.Array(ownerIDs), cursor.CreatedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get posts by owners: %w", err)
	}
	return posts, nil
}

// DeleteOwned removes a post owned by userID. The post row is locked first
// so a concurrent Save either lands before the cascade (and is removed by
// it) or fails with ErrPostNotFound afterwards.
func (r *postRepository) DeleteOwned(ctx context.Context, postID, userID int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ownerID int64
		err := tx.GetContext(ctx, &ownerID, `SELECT user_id FROM posts WHERE id = $1 FOR UPDATE`, postID)
		if err != nil {
			return notFoundOr(err, model.ErrPostNotFound, "lock post")
		}
		if ownerID != userID {
			return model.ErrNotPostOwner
		}

		cascade := []struct {
			what  string
			query string
		}{
			{"saved posts", `DELETE FROM saved_posts WHERE post_id = $1`},
			{"post likes", `DELETE FROM post_likes WHERE post_id = $1`},
			{"comment likes", `DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = $1)`},
			{"comments", `DELETE FROM comments WHERE post_id = $1`},
			{"post", `DELETE FROM posts WHERE id = $1`},
		}
		for _, step := range cascade {
			if _, err := tx.ExecContext(ctx, step.query, postID); err != nil {
				return fmt.Errorf("delete %s: %w", step.what, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET post_count = GREATEST(post_count - 1, 0) WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("decrement post count: %w", err)
		}
		return nil
	})
}

// GetTimelineEntries returns the newest posts of ownerIDs scored for the
// feed cache.
func (r *postRepository) GetTimelineEntries(ctx context.Context, ownerIDs []int64, limit int) ([]model.TimelineEntry, error) {
	if len(ownerIDs) == 0 {
		return []model.TimelineEntry{}, nil
	}

	type row struct {
		ID    int64 `db:"id"`
		Score int64 `db:"score"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, (EXTRACT(EPOCH FROM created_at) * 1000000)::bigint AS score
		FROM posts
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, pq.Array(ownerIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("get timeline entries: %w", err)
	}

	entries := make([]model.TimelineEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.TimelineEntry{PostID: row.ID, Score: row.Score}
	}
	return entries, nil
}

func (r *postRepository) CommentIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	type row struct {
		PostID int64 `db:"post_id"`
		ID     int64 `db:"id"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows,
		`SELECT post_id, id FROM comments WHERE post_id = ANY($1) ORDER BY id`, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get comment ids: %w", err)
	}

	for _, id := range postIDs {
		result[id] = []int64{}
	}
	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.ID)
	}
	return result, nil
}

func (r *postRepository) Save(ctx context.Context, userID, postID int64) (bool, error) {
	var saved bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id int64
		if err := tx.GetContext(ctx, &id, `SELECT id FROM posts WHERE id = $1 FOR SHARE`, postID); err != nil {
			return notFoundOr(err, model.ErrPostNotFound, "lock post")
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO saved_posts (user_id, post_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, post_id) DO NOTHING
		`, userID, postID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("insert saved post: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		saved = rows > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

func (r *postRepository) Unsave(ctx context.Context, userID, postID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete saved post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// SavedPostIDs returns the user's save-set, most recently saved first.
func (r *postRepository) SavedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT post_id FROM saved_posts WHERE user_id = $1 ORDER BY created_at DESC, post_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get saved post ids: %w", err)
	}
	return ids, nil
}

func (r *postRepository) CheckSaved(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var savedIDs []int64
	err := r.db.SelectContext(ctx, &savedIDs,
		`SELECT post_id FROM saved_posts WHERE user_id = $1 AND post_id = ANY($2)`, userID, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("check saved: %w", err)
	}

	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range savedIDs {
		result[id] = true
	}
	return result, nil
}
