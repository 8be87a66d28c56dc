package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"snapbee/internal/model"
	"snapbee/internal/repository"
)

func seedUsers(t *testing.T, store *repository.Store, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, len(names))
	for i, name := range names {
		u := &model.User{Username: name, Name: name, Email: name + "@example.com", PasswordHashed: "x"}
		if err := store.Users.Create(context.Background(), u); err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		ids[i] = u.ID
	}
	return ids
}

func TestUsers_UniqueConstraints(t *testing.T) {
	store := NewStore()
	seedUsers(t, store, "alice")
	ctx := context.Background()

	err := store.Users.Create(ctx, &model.User{Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, model.ErrUsernameExists) {
		t.Errorf("duplicate username: got %v", err)
	}
	err = store.Users.Create(ctx, &model.User{Username: "alice2", Email: "ALICE@example.com"})
	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("duplicate email: got %v", err)
	}
}

func TestFollow_ConcurrentInsertsSucceedOnce(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "a", "b")
	ctx := context.Background()

	var inserted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Follows.Follow(ctx, ids[0], ids[1])
			if err != nil {
				t.Errorf("follow: %v", err)
			}
			if ok {
				atomic.AddInt32(&inserted, 1)
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Fatalf("inserted %d times, want 1", inserted)
	}
	a, _ := store.Users.GetByID(ctx, ids[0])
	b, _ := store.Users.GetByID(ctx, ids[1])
	if a.FollowingCount != 1 || b.FollowerCount != 1 {
		t.Errorf("counts = following %d follower %d, want 1 and 1", a.FollowingCount, b.FollowerCount)
	}
}

func TestFollow_UnknownUser(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "a")

	_, err := store.Follows.Follow(context.Background(), ids[0], 999)
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestFollowers_Pagination(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "target", "f1", "f2", "f3")
	ctx := context.Background()
	for _, id := range ids[1:] {
		if _, err := store.Follows.Follow(ctx, id, ids[0]); err != nil {
			t.Fatal(err)
		}
	}

	page, next, err := store.Follows.GetFollowers(ctx, ids[0], nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || next == nil {
		t.Fatalf("first page: %d users, next=%v", len(page), next)
	}
	if page[0].Username != "f3" || page[1].Username != "f2" {
		t.Errorf("first page order: %s, %s", page[0].Username, page[1].Username)
	}

	page, next, err = store.Follows.GetFollowers(ctx, ids[0], next, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || next != nil || page[0].Username != "f1" {
		t.Errorf("second page: %+v next=%v", page, next)
	}
}

func TestDeleteOwned_CascadesEverySaveSet(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "owner", "s1", "s2")
	ctx := context.Background()

	post := &model.Post{UserID: ids[0]}
	if err := store.Posts.Create(ctx, post); err != nil {
		t.Fatal(err)
	}
	comment := &model.Comment{PostID: post.ID, UserID: ids[1], Content: "hi"}
	if err := store.Comments.Create(ctx, comment); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids[1:] {
		if _, err := store.Posts.Save(ctx, id, post.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := store.PostLikes.Add(ctx, post.ID, id); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Posts.DeleteOwned(ctx, post.ID, ids[1]); !errors.Is(err, model.ErrNotPostOwner) {
		t.Fatalf("non-owner delete: got %v", err)
	}
	saved, _ := store.Posts.SavedPostIDs(ctx, ids[1])
	if len(saved) != 1 {
		t.Fatalf("rejected delete touched save-set: %v", saved)
	}

	if err := store.Posts.DeleteOwned(ctx, post.ID, ids[0]); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	for _, id := range ids[1:] {
		saved, _ := store.Posts.SavedPostIDs(ctx, id)
		if len(saved) != 0 {
			t.Errorf("user %d still has saved posts %v", id, saved)
		}
	}
	if _, err := store.Comments.GetByID(ctx, comment.ID); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("comment survived post delete: %v", err)
	}
	owner, _ := store.Users.GetByID(ctx, ids[0])
	if owner.PostCount != 0 {
		t.Errorf("post count = %d, want 0", owner.PostCount)
	}
}

func TestLikes_SetSemantics(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "owner", "fan")
	ctx := context.Background()

	post := &model.Post{UserID: ids[0]}
	if err := store.Posts.Create(ctx, post); err != nil {
		t.Fatal(err)
	}

	for i, want := range []bool{true, false} {
		added, err := store.PostLikes.Add(ctx, post.ID, ids[1])
		if err != nil || added != want {
			t.Errorf("add #%d: added=%v err=%v", i, added, err)
		}
	}
	got, _ := store.Posts.GetByID(ctx, post.ID)
	if got.LikeCount != 1 {
		t.Errorf("like count = %d, want 1", got.LikeCount)
	}

	for i, want := range []bool{true, false} {
		removed, err := store.PostLikes.Remove(ctx, post.ID, ids[1])
		if err != nil || removed != want {
			t.Errorf("remove #%d: removed=%v err=%v", i, removed, err)
		}
	}

	if _, err := store.CommentLikes.Add(ctx, 42, ids[1]); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("like missing comment: got %v", err)
	}
}

func TestComments_CreateAppendsToPost(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "owner")
	ctx := context.Background()

	if err := store.Comments.Create(ctx, &model.Comment{PostID: 7, UserID: ids[0]}); !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("comment on missing post: got %v", err)
	}

	post := &model.Post{UserID: ids[0]}
	if err := store.Posts.Create(ctx, post); err != nil {
		t.Fatal(err)
	}
	c := &model.Comment{PostID: post.ID, UserID: ids[0], Content: "first"}
	if err := store.Comments.Create(ctx, c); err != nil {
		t.Fatal(err)
	}

	commentIDs, _ := store.Posts.CommentIDs(ctx, []int64{post.ID})
	if len(commentIDs[post.ID]) != 1 || commentIDs[post.ID][0] != c.ID {
		t.Errorf("comment ids = %v", commentIDs[post.ID])
	}
	got, _ := store.Posts.GetByID(ctx, post.ID)
	if got.CommentCount != 1 {
		t.Errorf("comment count = %d", got.CommentCount)
	}
}

func TestGetByOwners_CursorPagination(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "a", "b")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Posts.Create(ctx, &model.Post{UserID: ids[i%2]}); err != nil {
			t.Fatal(err)
		}
	}

	first, err := store.Posts.GetByOwners(ctx, ids, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || first[0].ID != 5 || first[2].ID != 3 {
		t.Fatalf("first page ids: %v", postIDs(first))
	}
	cursor := &model.PostCursor{CreatedAt: first[2].CreatedAt, ID: first[2].ID}
	rest, _ := store.Posts.GetByOwners(ctx, ids, cursor, 3)
	if len(rest) != 2 || rest[0].ID != 2 || rest[1].ID != 1 {
		t.Errorf("second page ids: %v", postIDs(rest))
	}
}

func TestStories_DeleteOlderThan(t *testing.T) {
	store := NewStore()
	ids := seedUsers(t, store, "a")
	ctx := context.Background()

	s := &model.Story{UserID: ids[0], Image: "x.jpg"}
	if err := store.Stories.Create(ctx, s); err != nil {
		t.Fatal(err)
	}

	n, _ := store.Stories.DeleteOlderThan(ctx, s.CreatedAt.Add(-time.Second))
	if n != 0 {
		t.Errorf("deleted %d fresh stories", n)
	}
	n, _ = store.Stories.DeleteOlderThan(ctx, s.CreatedAt)
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func postIDs(posts []model.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
