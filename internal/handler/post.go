package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type PostHandler struct {
	postService *service.PostService
	logger      *zap.Logger
}

func NewPostHandler(postService *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger.With(zap.String("component", "post_handler")),
	}
}

// Create handles POST /posts/create
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, "create post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Get handles GET /posts/{postId}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(r, "postId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.Get(r.Context(), postID, viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// GetByOwner handles GET /posts/all/{userId}
func (h *PostHandler) GetByOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	posts, err := h.postService.GetByOwner(r.Context(), userID, viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get user posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetByOwners handles GET /posts/following/{userIds}
func (h *PostHandler) GetByOwners(w http.ResponseWriter, r *http.Request) {
	ids, ok := idListParam(r, "userIds")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID list")
		return
	}

	posts, err := h.postService.GetByOwners(r.Context(), ids, viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get posts by owners", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetSaved handles GET /api/users/saved
func (h *PostHandler) GetSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.postService.GetSaved(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "get saved posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Like handles PUT /posts/like/{postId}
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.withPost(w, r, "like post", func(ctx context.Context, postID, userID int64) (any, int, error) {
		post, err := h.postService.Like(ctx, postID, userID)
		return post, http.StatusOK, err
	})
}

// Unlike handles PUT /posts/unlike/{postId}
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.withPost(w, r, "unlike post", func(ctx context.Context, postID, userID int64) (any, int, error) {
		post, err := h.postService.Unlike(ctx, postID, userID)
		return post, http.StatusOK, err
	})
}

// Save handles PUT /posts/save/{postId}
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.withPost(w, r, "save post", func(ctx context.Context, postID, userID int64) (any, int, error) {
		res, err := h.postService.Save(ctx, postID, userID)
		return res, http.StatusAccepted, err
	})
}

// Unsave handles PUT /posts/unsave/{postId}
func (h *PostHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.withPost(w, r, "unsave post", func(ctx context.Context, postID, userID int64) (any, int, error) {
		res, err := h.postService.Unsave(ctx, postID, userID)
		return res, http.StatusAccepted, err
	})
}

// Delete handles DELETE /posts/delete/{postId}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.withPost(w, r, "delete post", func(ctx context.Context, postID, userID int64) (any, int, error) {
		res, err := h.postService.Delete(ctx, postID, userID)
		return res, http.StatusAccepted, err
	})
}

// withPost runs an authenticated action on the {postId} route parameter.
func (h *PostHandler) withPost(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, postID, userID int64) (any, int, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(r, "postId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	body, status, err := fn(r.Context(), postID, userID)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	httputil.WriteJSON(w, status, body)
}
