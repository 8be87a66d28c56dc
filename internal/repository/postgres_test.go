package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapbee/internal/database"
	"snapbee/internal/model"
	"snapbee/internal/repository"
)

// setupStore connects to TEST_DATABASE_URL, migrates and truncates it.
func setupStore(t *testing.T) *repository.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres tests")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	_, err = db.Exec(`TRUNCATE users, follows, posts, post_likes, comments, comment_likes, saved_posts, stories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return repository.NewPostgresStore(db)
}

func createUser(t *testing.T, store *repository.Store, name string) *model.User {
	t.Helper()
	u := &model.User{
		Username:       name,
		Name:           name,
		Email:          fmt.Sprintf("%s@example.com", name),
		PasswordHashed: "hash",
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func TestPostgres_UserUniqueness(t *testing.T) {
	store := setupStore(t)
	createUser(t, store, "alice")
	ctx := context.Background()

	err := store.Users.Create(ctx, &model.User{Username: "alice", Name: "A", Email: "x@example.com", PasswordHashed: "h"})
	assert.ErrorIs(t, err, model.ErrUsernameExists)

	err = store.Users.Create(ctx, &model.User{Username: "bob", Name: "B", Email: "alice@example.com", PasswordHashed: "h"})
	assert.ErrorIs(t, err, model.ErrEmailExists)

	err = store.Users.Create(ctx, &model.User{Username: "carol", Name: "C", Email: "ALICE@example.com", PasswordHashed: "h"})
	assert.ErrorIs(t, err, model.ErrEmailExists)

	bob := createUser(t, store, "bob")
	bob.Email = "Alice@Example.com"
	assert.ErrorIs(t, store.Users.Update(ctx, bob), model.ErrEmailExists)

	byEmail, err := store.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Username)

	found, err := store.Users.Search(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)
}

func TestPostgres_ConcurrentFollowIsSymmetricAndSingle(t *testing.T) {
	store := setupStore(t)
	a := createUser(t, store, "a")
	b := createUser(t, store, "b")
	ctx := context.Background()

	var mu sync.Mutex
	inserted := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Follows.Follow(ctx, a.ID, b.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inserted)

	following, err := store.Follows.GetFolloweeIDs(ctx, a.ID)
	require.NoError(t, err)
	followers, err := store.Follows.GetFollowerIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, following)
	assert.Equal(t, []int64{a.ID}, followers)

	gotA, _ := store.Users.GetByID(ctx, a.ID)
	gotB, _ := store.Users.GetByID(ctx, b.ID)
	assert.Equal(t, 1, gotA.FollowingCount)
	assert.Equal(t, 1, gotB.FollowerCount)

	removed, err := store.Follows.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Follows.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostgres_DeleteOwnedCascade(t *testing.T) {
	store := setupStore(t)
	owner := createUser(t, store, "owner")
	fan := createUser(t, store, "fan")
	ctx := context.Background()

	caption := "hello"
	post := &model.Post{UserID: owner.ID, Caption: &caption}
	require.NoError(t, store.Posts.Create(ctx, post))

	comment := &model.Comment{PostID: post.ID, UserID: fan.ID, Content: "nice"}
	require.NoError(t, store.Comments.Create(ctx, comment))
	_, err := store.CommentLikes.Add(ctx, comment.ID, owner.ID)
	require.NoError(t, err)
	_, err = store.PostLikes.Add(ctx, post.ID, fan.ID)
	require.NoError(t, err)

	saved, err := store.Posts.Save(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = store.Posts.Save(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	assert.ErrorIs(t, store.Posts.DeleteOwned(ctx, post.ID, fan.ID), model.ErrNotPostOwner)
	ids, _ := store.Posts.SavedPostIDs(ctx, fan.ID)
	assert.Equal(t, []int64{post.ID}, ids)

	require.NoError(t, store.Posts.DeleteOwned(ctx, post.ID, owner.ID))
	ids, _ = store.Posts.SavedPostIDs(ctx, fan.ID)
	assert.Empty(t, ids)

	_, err = store.Posts.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, model.ErrPostNotFound)
	_, err = store.Comments.GetByID(ctx, comment.ID)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
	assert.ErrorIs(t, store.Posts.DeleteOwned(ctx, post.ID, owner.ID), model.ErrPostNotFound)
}

func TestPostgres_LikesAndComments(t *testing.T) {
	store := setupStore(t)
	owner := createUser(t, store, "owner")
	fan := createUser(t, store, "fan")
	ctx := context.Background()

	post := &model.Post{UserID: owner.ID}
	require.NoError(t, store.Posts.Create(ctx, post))

	added, err := store.PostLikes.Add(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.PostLikes.Add(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, added)

	likers, err := store.PostLikes.LikedBy(ctx, []int64{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{fan.ID}, likers[post.ID])

	_, err = store.PostLikes.Add(ctx, 9999, fan.ID)
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	err = store.Comments.Create(ctx, &model.Comment{PostID: 9999, UserID: fan.ID, Content: "x"})
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	c := &model.Comment{PostID: post.ID, UserID: fan.ID, Content: "first"}
	require.NoError(t, store.Comments.Create(ctx, c))

	_, err = store.Comments.Update(ctx, c.ID, owner.ID, "hijack")
	assert.ErrorIs(t, err, model.ErrNotCommentOwner)

	updated, err := store.Comments.Update(ctx, c.ID, fan.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	got, err := store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, 1, got.CommentCount)

	postID, err := store.Comments.Delete(ctx, c.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, postID)
}

func TestPostgres_StoriesRetention(t *testing.T) {
	store := setupStore(t)
	u := createUser(t, store, "teller")
	ctx := context.Background()

	s := &model.Story{UserID: u.ID, Image: "https://cdn.example.com/s.jpg"}
	require.NoError(t, store.Stories.Create(ctx, s))

	stories, err := store.Stories.GetByUser(ctx, u.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, stories, 1)

	n, err := store.Stories.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
