package model

import (
	"time"
)

// User represents a user in the system.
// Following and Followers hold user ids and are only populated by the
// profile lookups; the follow edges themselves live in the follows table.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"`
	Mobile         *string   `db:"mobile" json:"mobile"`
	Bio            *string   `db:"bio" json:"bio"`
	Gender         *string   `db:"gender" json:"gender"`
	Image          *string   `db:"image" json:"image"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	PostCount      int       `db:"post_count" json:"post_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	Following []int64 `db:"-" json:"following"`
	Followers []int64 `db:"-" json:"followers"`
}

// Summary returns the lightweight representation used in lists.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Image:    u.Image,
	}
}

// ProfileResponse is a user as seen by a (possibly anonymous) viewer.
type ProfileResponse struct {
	*User
	IsFollowing bool `json:"is_following"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest accepts either the email or the username as identifier.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserPatch is a partial profile update. Nil fields are left untouched.
// ID is the client-asserted target and must match the authenticated user.
type UserPatch struct {
	ID       int64   `json:"id"`
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Mobile   *string `json:"mobile"`
	Bio      *string `json:"bio"`
	Gender   *string `json:"gender"`
	Image    *string `json:"image"`
}

// Apply copies every non-nil field of the patch onto u.
func (p *UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Mobile != nil {
		u.Mobile = p.Mobile
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Gender != nil {
		u.Gender = p.Gender
	}
	if p.Image != nil {
		u.Image = p.Image
	}
}

// Search limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrUsernameExists     = newError(ErrValidation, "This username already taken")
	ErrEmailExists        = newError(ErrValidation, "Email already exists")
	ErrFieldsRequired     = newError(ErrValidation, "All fields are mandatory")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
	ErrCannotUpdateUser   = newError(ErrForbidden, "you can not update user")
)
