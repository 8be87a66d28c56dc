// Package memory is an in-process storage driver. Every repository method
// runs inside one critical section over the shared dataset, which gives it
// the same all-or-nothing behaviour as a Postgres transaction.
package memory

import (
	"sort"
	"sync"
	"time"

	"snapbee/internal/model"
	"snapbee/internal/repository"
)

type edge struct{ from, to int64 }

type dataset struct {
	mu sync.RWMutex

	nextUserID    int64
	nextPostID    int64
	nextCommentID int64
	nextStoryID   int64

	users    map[int64]*model.User
	follows  map[edge]time.Time // follower -> followee
	posts    map[int64]*model.Post
	comments map[int64]*model.Comment
	stories  map[int64]*model.Story

	postLikes    map[edge]time.Time // post -> user
	commentLikes map[edge]time.Time // comment -> user
	saved        map[edge]time.Time // user -> post

	now  func() time.Time
	last time.Time
}

// NewStore returns a Store backed by a fresh in-memory dataset.
func NewStore() *repository.Store {
	d := &dataset{
		users:        make(map[int64]*model.User),
		follows:      make(map[edge]time.Time),
		posts:        make(map[int64]*model.Post),
		comments:     make(map[int64]*model.Comment),
		stories:      make(map[int64]*model.Story),
		postLikes:    make(map[edge]time.Time),
		commentLikes: make(map[edge]time.Time),
		saved:        make(map[edge]time.Time),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	return &repository.Store{
		Users:        &userRepository{d},
		Follows:      &followRepository{d},
		Posts:        &postRepository{d},
		PostLikes:    &likeRepository{d: d, likes: d.postLikes, kind: model.ContentPost},
		Comments:     &commentRepository{d},
		CommentLikes: &likeRepository{d: d, likes: d.commentLikes, kind: model.ContentComment},
		Stories:      &storyRepository{d},
	}
}

// stamp returns a timestamp strictly after every previously issued one so
// that creation order is total even within one clock tick. Callers hold mu.
func (d *dataset) stamp() time.Time {
	t := d.now()
	if !t.After(d.last) {
		t = d.last.Add(time.Microsecond)
	}
	d.last = t
	return t
}

// sortedBy returns the keys of set matching pick, ordered by insertion time.
func sortedBy(set map[edge]time.Time, pick func(edge) (int64, bool), newestFirst bool) []int64 {
	type item struct {
		id int64
		at time.Time
	}
	var items []item
	for e, at := range set {
		if id, ok := pick(e); ok {
			items = append(items, item{id, at})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].at.Equal(items[j].at) {
			if newestFirst {
				return items[i].id > items[j].id
			}
			return items[i].id < items[j].id
		}
		if newestFirst {
			return items[i].at.After(items[j].at)
		}
		return items[i].at.Before(items[j].at)
	})
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids
}
