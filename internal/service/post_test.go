package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"snapbee/internal/model"
	"snapbee/internal/queue"
)

func TestPostService_Create(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	tests := []struct {
		name    string
		req     model.CreatePostRequest
		wantErr error
	}{
		{"caption only", model.CreatePostRequest{Caption: ptr("hi")}, nil},
		{"image only", model.CreatePostRequest{Image: ptr("https://cdn/x.jpg"), Location: ptr("Hanoi")}, nil},
		{"empty", model.CreatePostRequest{Caption: ptr("  ")}, model.ErrEmptyPost},
		{"caption too long", model.CreatePostRequest{Caption: ptr(strings.Repeat("a", model.MaxPostCaptionLength+1))}, model.ErrCaptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := s.posts.Create(ctx, alice.ID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if post.UserID != alice.ID || post.ID == 0 || post.CreatedAt.IsZero() {
				t.Errorf("post = %+v", post)
			}
			if post.Author == nil || post.Author.Username != "alice" {
				t.Errorf("author = %+v", post.Author)
			}
		})
	}

	if got := s.events.types(); len(got) != 2 || got[0] != queue.EventPostCreated {
		t.Errorf("events = %v, want two post_created", got)
	}
}

func TestPostService_LikeIsIdempotent(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	post := s.post(t, alice.ID, "hello")

	// Unlike of never-liked content succeeds without change.
	unliked, err := s.posts.Unlike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("unlike never-liked: %v", err)
	}
	if len(unliked.LikedBy) != 0 || unliked.LikeCount != 0 {
		t.Errorf("unlike changed like-set: %+v", unliked.LikedBy)
	}

	for i := 0; i < 2; i++ {
		liked, err := s.posts.Like(ctx, post.ID, bob.ID)
		if err != nil {
			t.Fatalf("like #%d: %v", i+1, err)
		}
		if len(liked.LikedBy) != 1 || liked.LikedBy[0] != bob.ID || liked.LikeCount != 1 || !liked.IsLiked {
			t.Errorf("like #%d: liked_by = %v count = %d", i+1, liked.LikedBy, liked.LikeCount)
		}
	}

	unliked, err = s.posts.Unlike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unliked.LikedBy) != 0 || unliked.LikeCount != 0 || unliked.IsLiked {
		t.Errorf("after unlike: %+v", unliked)
	}

	if _, err := s.posts.Like(ctx, 999, bob.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("unknown post: err = %v", err)
	}
	if _, err := s.posts.Unlike(ctx, 999, bob.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("unlike unknown post: err = %v", err)
	}
	if _, err := s.posts.Like(ctx, post.ID, 999); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestPostService_SaveIsStrict(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	post := s.post(t, alice.ID, "hello")

	res, err := s.posts.Save(ctx, post.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Post is successfully saved" {
		t.Errorf("message = %q", res.Message)
	}

	_, err = s.posts.Save(ctx, post.ID, alice.ID)
	if !errors.Is(err, model.ErrAlreadySaved) || model.Message(err) != "Post is already saved" {
		t.Errorf("double save: err = %v", err)
	}

	saved, err := s.posts.GetSaved(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].ID != post.ID || !saved[0].IsSaved {
		t.Errorf("saved = %+v", saved)
	}

	res, err = s.posts.Unsave(ctx, post.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Post has been unsaved successfully" {
		t.Errorf("message = %q", res.Message)
	}

	_, err = s.posts.Unsave(ctx, post.ID, alice.ID)
	if !errors.Is(err, model.ErrNotSaved) || model.Message(err) != "Post was not saved" {
		t.Errorf("double unsave: err = %v", err)
	}

	if _, err := s.posts.Save(ctx, 999, alice.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("save unknown post: err = %v", err)
	}
	if _, err := s.posts.Unsave(ctx, 999, alice.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("unsave unknown post: err = %v", err)
	}
}

func TestPostService_DeleteByOwnerCascades(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	carol := s.register(t, "carol")
	post := s.post(t, alice.ID, "hello")
	keep := s.post(t, alice.ID, "keep")

	for _, id := range []int64{alice.ID, bob.ID, carol.ID} {
		if _, err := s.posts.Save(ctx, post.ID, id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.posts.Save(ctx, keep.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.posts.Like(ctx, post.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	comment, err := s.comments.Create(ctx, post.ID, carol.ID, model.CreateCommentRequest{Content: "nice"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.posts.Delete(ctx, post.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Post deleted successfully" {
		t.Errorf("message = %q", res.Message)
	}

	if _, err := s.posts.Get(ctx, post.ID, nil); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("deleted post still readable: %v", err)
	}
	for _, id := range []int64{alice.ID, bob.ID, carol.ID} {
		ids, _ := s.store.Posts.SavedPostIDs(ctx, id)
		if containsID(ids, post.ID) {
			t.Errorf("user %d still has the deleted post saved", id)
		}
	}
	bobSaved, _ := s.store.Posts.SavedPostIDs(ctx, bob.ID)
	if !containsID(bobSaved, keep.ID) {
		t.Error("unrelated saved post was removed")
	}
	if _, err := s.comments.Get(ctx, comment.ID); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("comment survived its post: %v", err)
	}

	if got := s.events.types(); got[len(got)-1] != queue.EventPostDeleted {
		t.Errorf("last event = %v, want post_deleted", got[len(got)-1])
	}
}

func TestPostService_DeleteByNonOwnerChangesNothing(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	post := s.post(t, alice.ID, "hello")
	if _, err := s.posts.Save(ctx, post.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	_, err := s.posts.Delete(ctx, post.ID, bob.ID)
	if !errors.Is(err, model.ErrNotPostOwner) || !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v, want ErrNotPostOwner", err)
	}

	if _, err := s.posts.Get(ctx, post.ID, nil); err != nil {
		t.Errorf("post removed by non-owner: %v", err)
	}
	saved, _ := s.store.Posts.SavedPostIDs(ctx, bob.ID)
	if !containsID(saved, post.ID) {
		t.Error("save-set changed by a rejected delete")
	}

	if _, err := s.posts.Delete(ctx, 999, alice.ID); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("unknown post: err = %v", err)
	}
}

func TestPostService_GetHydratesViewerState(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	post := s.post(t, alice.ID, "hello")
	if _, err := s.follows.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.posts.Like(ctx, post.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.posts.Save(ctx, post.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	c1, _ := s.comments.Create(ctx, post.ID, bob.ID, model.CreateCommentRequest{Content: "one"})
	c2, _ := s.comments.Create(ctx, post.ID, alice.ID, model.CreateCommentRequest{Content: "two"})

	got, err := s.posts.Get(ctx, post.ID, &bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsLiked || !got.IsSaved {
		t.Errorf("is_liked = %v, is_saved = %v", got.IsLiked, got.IsSaved)
	}
	if len(got.CommentIDs) != 2 || got.CommentIDs[0] != c1.ID || got.CommentIDs[1] != c2.ID {
		t.Errorf("comment_ids = %v", got.CommentIDs)
	}
	if got.CommentCount != 2 {
		t.Errorf("comment_count = %d", got.CommentCount)
	}
	if got.Author == nil || !got.Author.IsFollowing {
		t.Errorf("author = %+v", got.Author)
	}

	anon, err := s.posts.Get(ctx, post.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if anon.IsLiked || anon.IsSaved {
		t.Error("anonymous viewer should see no viewer state")
	}
}

func TestPostService_GetByOwners(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	a1 := s.post(t, alice.ID, "a1")
	b1 := s.post(t, bob.ID, "b1")
	a2 := s.post(t, alice.ID, "a2")

	posts, err := s.posts.GetByOwners(ctx, []int64{alice.ID, bob.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{a2.ID, b1.ID, a1.ID}
	if len(posts) != len(want) {
		t.Fatalf("got %d posts, want %d", len(posts), len(want))
	}
	for i, id := range want {
		if posts[i].ID != id {
			t.Errorf("posts[%d] = %d, want %d", i, posts[i].ID, id)
		}
	}

	own, err := s.posts.GetByOwner(ctx, bob.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(own) != 1 || own[0].ID != b1.ID {
		t.Errorf("bob's posts = %+v", own)
	}
	if _, err := s.posts.GetByOwner(ctx, 999, nil); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown owner: err = %v", err)
	}
}

// TestScenario_FollowPostLikeSaveDelete walks two users through the whole
// engagement lifecycle.
func TestScenario_FollowPostLikeSaveDelete(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := s.register(t, "anna")
	b := s.register(t, "bao")

	if _, err := s.follows.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	authors, _ := s.follows.ResolveFollowedAuthors(ctx, a.ID)
	if !containsID(authors, b.ID) {
		t.Fatal("b missing from a's followed authors")
	}

	post := s.post(t, b.ID, "from b")

	feed, err := s.feed.GetFeed(ctx, a.ID, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Posts) != 1 || feed.Posts[0].ID != post.ID {
		t.Fatalf("a's feed = %+v", feed.Posts)
	}

	liked, err := s.posts.Like(ctx, post.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !liked.HasLike(a.ID) {
		t.Fatal("like not recorded")
	}
	if _, err := s.posts.Save(ctx, post.ID, a.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.posts.Delete(ctx, post.ID, a.ID); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("a deleting b's post: err = %v", err)
	}
	if _, err := s.posts.Delete(ctx, post.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	saved, err := s.posts.GetSaved(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 0 {
		t.Errorf("a's saved posts = %+v, want none", saved)
	}
	feed, err = s.feed.GetFeed(ctx, a.ID, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Posts) != 0 {
		t.Errorf("deleted post still in feed: %+v", feed.Posts)
	}
}
