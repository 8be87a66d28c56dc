package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/model"
	"snapbee/internal/queue"
	"snapbee/internal/repository"
	"snapbee/internal/repository/memory"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event queue.Event) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "0-1", nil
}

func (p *recordingPublisher) types() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type services struct {
	store    *repository.Store
	auth     *AuthService
	users    *UserService
	follows  *FollowService
	posts    *PostService
	comments *CommentService
	stories  *StoryService
	feed     *FeedService
	events   *recordingPublisher
}

func newServices(t *testing.T) *services {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	events := &recordingPublisher{}
	auth := NewAuthService("test-secret", 3600)
	posts := NewPostService(store, events, logger)
	return &services{
		store:    store,
		auth:     auth,
		users:    NewUserService(store.Users, store.Follows, auth, logger),
		follows:  NewFollowService(store.Follows, store.Users, events, logger),
		posts:    posts,
		comments: NewCommentService(store, logger),
		stories:  NewStoryService(store.Stories, store.Users, 24*time.Hour, logger),
		feed:     NewFeedService(nil, store, posts, logger),
		events:   events,
	}
}

func (s *services) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := s.users.Register(context.Background(), &model.RegisterRequest{
		Name:     username,
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func (s *services) post(t *testing.T, ownerID int64, caption string) *model.Post {
	t.Helper()
	post, err := s.posts.Create(context.Background(), ownerID, model.CreatePostRequest{Caption: &caption})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func ptr[T any](v T) *T { return &v }

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
