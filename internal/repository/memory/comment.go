package memory

import (
	"context"
	"sort"

	"snapbee/internal/model"
)

type commentRepository struct{ d *dataset }

func (r *commentRepository) Create(_ context.Context, c *model.Comment) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	post, ok := r.d.posts[c.PostID]
	if !ok {
		return model.ErrPostNotFound
	}
	if _, ok := r.d.users[c.UserID]; !ok {
		return model.ErrUserNotFound
	}

	r.d.nextCommentID++
	c.ID = r.d.nextCommentID
	c.CreatedAt = r.d.stamp()
	c.LikeCount = 0

	stored := *c
	stored.LikedBy, stored.Author = nil, nil
	r.d.comments[c.ID] = &stored
	post.CommentCount++
	return nil
}

func (r *commentRepository) GetByID(_ context.Context, commentID int64) (*model.Comment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	c, ok := r.d.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *commentRepository) GetByPostID(_ context.Context, postID int64) ([]model.Comment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	comments := []model.Comment{}
	for _, c := range r.d.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r *commentRepository) Update(_ context.Context, commentID, userID int64, content string) (*model.Comment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	c, ok := r.d.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	if c.UserID != userID {
		return nil, model.ErrNotCommentOwner
	}
	c.Content = content
	clone := *c
	return &clone, nil
}

func (r *commentRepository) Delete(_ context.Context, commentID, userID int64) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	c, ok := r.d.comments[commentID]
	if !ok {
		return 0, model.ErrCommentNotFound
	}
	if c.UserID != userID {
		return 0, model.ErrNotCommentOwner
	}

	for e := range r.d.commentLikes {
		if e.from == commentID {
			delete(r.d.commentLikes, e)
		}
	}
	delete(r.d.comments, commentID)
	if post, ok := r.d.posts[c.PostID]; ok && post.CommentCount > 0 {
		post.CommentCount--
	}
	return c.PostID, nil
}
