package memory

import (
	"context"
	"time"

	"snapbee/internal/model"
)

// likeRepository keeps one content kind's like-sets as target -> user edges.
type likeRepository struct {
	d     *dataset
	likes map[edge]time.Time
	kind  model.ContentKind
}

// bump adjusts the like counter of the target and reports whether it exists.
// Callers hold mu.
func (r *likeRepository) bump(targetID int64, delta int) bool {
	switch r.kind {
	case model.ContentPost:
		if p, ok := r.d.posts[targetID]; ok {
			p.LikeCount = max(p.LikeCount+delta, 0)
			return true
		}
	case model.ContentComment:
		if c, ok := r.d.comments[targetID]; ok {
			c.LikeCount = max(c.LikeCount+delta, 0)
			return true
		}
	}
	return false
}

func (r *likeRepository) notFound() error {
	if r.kind == model.ContentComment {
		return model.ErrCommentNotFound
	}
	return model.ErrPostNotFound
}

func (r *likeRepository) Add(_ context.Context, targetID, userID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if !r.bump(targetID, 0) {
		return false, r.notFound()
	}
	if _, ok := r.d.users[userID]; !ok {
		return false, model.ErrUserNotFound
	}

	e := edge{targetID, userID}
	if _, liked := r.likes[e]; liked {
		return false, nil
	}
	r.likes[e] = r.d.stamp()
	r.bump(targetID, 1)
	return true, nil
}

func (r *likeRepository) Remove(_ context.Context, targetID, userID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	e := edge{targetID, userID}
	if _, liked := r.likes[e]; !liked {
		return false, nil
	}
	delete(r.likes, e)
	r.bump(targetID, -1)
	return true, nil
}

func (r *likeRepository) LikedBy(_ context.Context, targetIDs []int64) (map[int64][]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	result := make(map[int64][]int64, len(targetIDs))
	for _, id := range targetIDs {
		result[id] = sortedBy(r.likes, func(e edge) (int64, bool) { return e.to, e.from == id }, false)
	}
	return result, nil
}
