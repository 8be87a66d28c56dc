package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"snapbee/internal/model"
	"snapbee/internal/repository"
)

// UserService handles business logic for accounts and profiles.
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	auth       *AuthService
	logger     *zap.Logger
}

func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository, auth *AuthService, logger *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
		auth:       auth,
		logger:     logger.With(zap.String("component", "user_service")),
	}
}

// Register creates a new account. All four fields are mandatory.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if name == "" || email == "" || username == "" || req.Password == "" {
		return nil, model.ErrFieldsRequired
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	exists, err = s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:           name,
		Email:          email,
		Username:       username,
		PasswordHashed: string(hashed),
	}
	// The repository re-checks uniqueness, so a concurrent signup still fails cleanly.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates by email or username and issues an access token.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	if req.Password == "" || (req.Email == "" && req.Username == "") {
		return nil, model.ErrInvalidCredentials
	}

	var (
		user *model.User
		err  error
	)
	if req.Email != "" {
		user, err = s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	} else {
		user, err = s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	}
	if err != nil {
		// Don't reveal whether the account exists.
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		Token:     token,
		ExpiresIn: s.auth.ExpiresIn(),
		User:      user,
	}, nil
}

// GetProfile returns a user with its follow sets and, for an authenticated
// viewer other than the user, whether the viewer follows them.
func (s *UserService) GetProfile(ctx context.Context, userID int64, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user, viewerID)
}

func (s *UserService) GetProfileByUsername(ctx context.Context, username string, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user, viewerID)
}

func (s *UserService) profile(ctx context.Context, user *model.User, viewerID *int64) (*model.ProfileResponse, error) {
	if err := s.hydrateFollows(ctx, user); err != nil {
		return nil, err
	}

	profile := &model.ProfileResponse{User: user}
	if viewerID != nil && *viewerID != user.ID {
		isFollowing, err := s.followRepo.Exists(ctx, *viewerID, user.ID)
		if err != nil {
			s.logger.Warn("follow status check failed", zap.Int64("viewer_id", *viewerID), zap.Error(err))
		} else {
			profile.IsFollowing = isFollowing
		}
	}
	return profile, nil
}

func (s *UserService) hydrateFollows(ctx context.Context, user *model.User) error {
	following, err := s.followRepo.GetFolloweeIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get following: %w", err)
	}
	followers, err := s.followRepo.GetFollowerIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}
	user.Following = nonNil(following)
	user.Followers = nonNil(followers)
	return nil
}

// Me returns the authenticated user.
func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateFollows(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByIDs returns the known users among ids in request order.
func (s *UserService) GetByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if err := s.hydrateFollows(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Search matches username or email. A blank query matches nobody.
func (s *UserService) Search(ctx context.Context, query string, limit int, viewerID *int64) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}
	if limit <= 0 {
		limit = model.DefaultSearchLimit
	}
	if limit > model.MaxSearchLimit {
		limit = model.MaxSearchLimit
	}

	users, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && len(users) > 0 {
		userIDs := make([]int64, len(users))
		for i, user := range users {
			userIDs[i] = user.ID
		}
		followMap, err := s.followRepo.CheckFollows(ctx, *viewerID, userIDs)
		if err == nil {
			for i := range users {
				users[i].IsFollowing = followMap[users[i].ID]
			}
		}
	}

	return nonNil(users), nil
}

// UpdateUser applies patch to the authenticated user. The patch must target
// the caller's own id.
func (s *UserService) UpdateUser(ctx context.Context, patch *model.UserPatch, authID int64) (*model.User, error) {
	if patch.ID != authID {
		return nil, model.ErrCannotUpdateUser
	}

	user, err := s.repo.GetByID(ctx, authID)
	if err != nil {
		return nil, err
	}

	patch.Apply(user)
	if strings.TrimSpace(user.Username) == "" || strings.TrimSpace(user.Email) == "" {
		return nil, model.ErrFieldsRequired
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.hydrateFollows(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", user.ID))
	return user, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
