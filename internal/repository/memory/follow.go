package memory

import (
	"context"
	"sort"
	"time"

	"snapbee/internal/model"
)

type followRepository struct{ d *dataset }

func (r *followRepository) Follow(_ context.Context, followerID, followeeID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	follower, ok := r.d.users[followerID]
	if !ok {
		return false, model.ErrUserNotFound
	}
	followee, ok := r.d.users[followeeID]
	if !ok {
		return false, model.ErrUserNotFound
	}

	e := edge{followerID, followeeID}
	if _, exists := r.d.follows[e]; exists {
		return false, nil
	}
	r.d.follows[e] = r.d.stamp()
	follower.FollowingCount++
	followee.FollowerCount++
	return true, nil
}

func (r *followRepository) Unfollow(_ context.Context, followerID, followeeID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	e := edge{followerID, followeeID}
	if _, exists := r.d.follows[e]; !exists {
		return false, nil
	}
	delete(r.d.follows, e)
	if u, ok := r.d.users[followerID]; ok && u.FollowingCount > 0 {
		u.FollowingCount--
	}
	if u, ok := r.d.users[followeeID]; ok && u.FollowerCount > 0 {
		u.FollowerCount--
	}
	return true, nil
}

func (r *followRepository) Exists(_ context.Context, followerID, followeeID int64) (bool, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	_, ok := r.d.follows[edge{followerID, followeeID}]
	return ok, nil
}

func (r *followRepository) GetFollowers(_ context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.page(func(e edge) (int64, bool) { return e.from, e.to == userID }, cursor, limit)
}

func (r *followRepository) GetFollowing(_ context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return r.page(func(e edge) (int64, bool) { return e.to, e.from == userID }, cursor, limit)
}

func (r *followRepository) page(pick func(edge) (int64, bool), cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	type row struct {
		user *model.User
		at   time.Time
	}
	var rows []row
	for e, at := range r.d.follows {
		id, ok := pick(e)
		if !ok || (cursor != nil && !at.Before(*cursor)) {
			continue
		}
		if u, found := r.d.users[id]; found {
			rows = append(rows, row{u, at})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.After(rows[j].at) })

	var next *time.Time
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1].at
		next = &last
	}

	users := make([]model.UserSummary, len(rows))
	for i, row := range rows {
		users[i] = row.user.Summary()
	}
	return users, next, nil
}

func (r *followRepository) CheckFollows(_ context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	result := make(map[int64]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		_, result[id] = r.d.follows[edge{followerID, id}]
	}
	return result, nil
}

func (r *followRepository) GetFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return sortedBy(r.d.follows, func(e edge) (int64, bool) { return e.from, e.to == userID }, true), nil
}

func (r *followRepository) GetFolloweeIDs(_ context.Context, userID int64) ([]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	return sortedBy(r.d.follows, func(e edge) (int64, bool) { return e.to, e.from == userID }, true), nil
}
