package memory

import (
	"context"
	"sort"
	"strings"

	"snapbee/internal/model"
)

type userRepository struct{ d *dataset }

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if err := r.d.checkUnique(0, u.Username, u.Email); err != nil {
		return err
	}

	r.d.nextUserID++
	now := r.d.stamp()
	u.ID = r.d.nextUserID
	u.CreatedAt, u.UpdatedAt = now, now
	u.FollowerCount, u.FollowingCount, u.PostCount = 0, 0, 0

	stored := *u
	stored.Following, stored.Followers = nil, nil
	r.d.users[u.ID] = &stored
	return nil
}

// checkUnique enforces the unique username and email of every user but self.
func (d *dataset) checkUnique(self int64, username, email string) error {
	for _, other := range d.users {
		if other.ID == self {
			continue
		}
		if strings.EqualFold(other.Email, email) {
			return model.ErrEmailExists
		}
		if other.Username == username {
			return model.ErrUsernameExists
		}
	}
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	u, ok := r.d.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	for _, u := range r.d.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) GetByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.d.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *userRepository) Search(_ context.Context, query string, limit int) ([]model.UserSummary, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []*model.User
	for _, u := range r.d.users {
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			matches = append(matches, u)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].FollowerCount != matches[j].FollowerCount {
			return matches[i].FollowerCount > matches[j].FollowerCount
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	summaries := make([]model.UserSummary, len(matches))
	for i, u := range matches {
		summaries[i] = u.Summary()
	}
	return summaries, nil
}

func (r *userRepository) Update(_ context.Context, u *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	stored, ok := r.d.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	if err := r.d.checkUnique(u.ID, u.Username, u.Email); err != nil {
		return err
	}

	stored.Username = u.Username
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Mobile = u.Mobile
	stored.Bio = u.Bio
	stored.Gender = u.Gender
	stored.Image = u.Image
	stored.UpdatedAt = r.d.stamp()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}
