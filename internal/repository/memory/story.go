package memory

import (
	"context"
	"sort"
	"time"

	"snapbee/internal/model"
)

type storyRepository struct{ d *dataset }

func (r *storyRepository) Create(_ context.Context, s *model.Story) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.users[s.UserID]; !ok {
		return model.ErrUserNotFound
	}
	r.d.nextStoryID++
	s.ID = r.d.nextStoryID
	s.CreatedAt = r.d.stamp()

	stored := *s
	r.d.stories[s.ID] = &stored
	return nil
}

func (r *storyRepository) GetByUser(_ context.Context, userID int64, since time.Time) ([]model.Story, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	stories := []model.Story{}
	for _, s := range r.d.stories {
		if s.UserID == userID && s.CreatedAt.After(since) {
			stories = append(stories, *s)
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].ID > stories[j].ID })
	return stories, nil
}

func (r *storyRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	var n int64
	for id, s := range r.d.stories {
		if !s.CreatedAt.After(cutoff) {
			delete(r.d.stories, id)
			n++
		}
	}
	return n, nil
}
