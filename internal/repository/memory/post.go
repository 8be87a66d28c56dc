package memory

import (
	"context"
	"sort"

	"snapbee/internal/model"
)

type postRepository struct{ d *dataset }

func (r *postRepository) Create(_ context.Context, p *model.Post) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	owner, ok := r.d.users[p.UserID]
	if !ok {
		return model.ErrUserNotFound
	}

	r.d.nextPostID++
	now := r.d.stamp()
	p.ID = r.d.nextPostID
	p.CreatedAt, p.UpdatedAt = now, now
	p.LikeCount, p.CommentCount = 0, 0

	stored := *p
	stored.LikedBy, stored.CommentIDs, stored.Author = nil, nil, nil
	r.d.posts[p.ID] = &stored
	owner.PostCount++
	return nil
}

func (r *postRepository) GetByID(_ context.Context, postID int64) (*model.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	p, ok := r.d.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *postRepository) GetByIDs(_ context.Context, postIDs []int64) ([]model.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	posts := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := r.d.posts[id]; ok {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func (r *postRepository) GetByOwners(_ context.Context, ownerIDs []int64, cursor *model.PostCursor, limit int) ([]model.Post, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	posts := r.d.postsOf(ownerIDs, cursor)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// postsOf lists the posts of owners past cursor, newest first. Callers hold mu.
func (d *dataset) postsOf(ownerIDs []int64, cursor *model.PostCursor) []model.Post {
	owners := make(map[int64]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	posts := []model.Post{}
	for _, p := range d.posts {
		if owners[p.UserID] && (cursor == nil || cursor.Admits(p)) {
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (r *postRepository) DeleteOwned(_ context.Context, postID, userID int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	p, ok := r.d.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if p.UserID != userID {
		return model.ErrNotPostOwner
	}

	for e := range r.d.saved {
		if e.to == postID {
			delete(r.d.saved, e)
		}
	}
	for e := range r.d.postLikes {
		if e.from == postID {
			delete(r.d.postLikes, e)
		}
	}
	for id, c := range r.d.comments {
		if c.PostID != postID {
			continue
		}
		for e := range r.d.commentLikes {
			if e.from == id {
				delete(r.d.commentLikes, e)
			}
		}
		delete(r.d.comments, id)
	}
	delete(r.d.posts, postID)

	if owner, ok := r.d.users[userID]; ok && owner.PostCount > 0 {
		owner.PostCount--
	}
	return nil
}

func (r *postRepository) GetTimelineEntries(_ context.Context, ownerIDs []int64, limit int) ([]model.TimelineEntry, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	posts := r.d.postsOf(ownerIDs, nil)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	entries := make([]model.TimelineEntry, len(posts))
	for i, p := range posts {
		entries[i] = model.TimelineEntry{PostID: p.ID, Score: p.CreatedAt.UnixMicro()}
	}
	return entries, nil
}

func (r *postRepository) CommentIDs(_ context.Context, postIDs []int64) (map[int64][]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	result := make(map[int64][]int64, len(postIDs))
	for _, id := range postIDs {
		result[id] = []int64{}
	}
	for _, c := range r.d.comments {
		if ids, ok := result[c.PostID]; ok {
			result[c.PostID] = append(ids, c.ID)
		}
	}
	for _, ids := range result {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return result, nil
}

func (r *postRepository) Save(_ context.Context, userID, postID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.posts[postID]; !ok {
		return false, model.ErrPostNotFound
	}
	if _, ok := r.d.users[userID]; !ok {
		return false, model.ErrUserNotFound
	}

	e := edge{userID, postID}
	if _, saved := r.d.saved[e]; saved {
		return false, nil
	}
	r.d.saved[e] = r.d.stamp()
	return true, nil
}

func (r *postRepository) Unsave(_ context.Context, userID, postID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	e := edge{userID, postID}
	if _, saved := r.d.saved[e]; !saved {
		return false, nil
	}
	delete(r.d.saved, e)
	return true, nil
}

func (r *postRepository) SavedPostIDs(_ context.Context, userID int64) ([]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return sortedBy(r.d.saved, func(e edge) (int64, bool) { return e.to, e.from == userID }, true), nil
}

func (r *postRepository) CheckSaved(_ context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		_, result[id] = r.d.saved[edge{userID, id}]
	}
	return result, nil
}
