package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
	logger         *zap.Logger
}

func NewCommentHandler(commentService *service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger.With(zap.String("component", "comment_handler")),
	}
}

// Create handles POST /api/comments/create/{postId}
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(r, "postId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, userID, req)
	if err != nil {
		writeError(w, h.logger, "create comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Get handles GET /api/comments/{commentId}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	commentID, ok := idParam(r, "commentId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	comment, err := h.commentService.Get(r.Context(), commentID)
	if err != nil {
		writeError(w, h.logger, "get comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// ListByPost handles GET /posts/{postId}/comments
func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(r, "postId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	comments, err := h.commentService.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(w, h.logger, "list comments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

// Like handles PUT /api/comments/like/{commentId}
func (h *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.withComment(w, r, "like comment", func(ctx context.Context, commentID, userID int64) (any, error) {
		return h.commentService.Like(ctx, commentID, userID)
	})
}

// Unlike handles PUT /api/comments/unlike/{commentId}
func (h *CommentHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.withComment(w, r, "unlike comment", func(ctx context.Context, commentID, userID int64) (any, error) {
		return h.commentService.Unlike(ctx, commentID, userID)
	})
}

// Update handles PUT /api/comments/{commentId}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.withComment(w, r, "update comment", func(ctx context.Context, commentID, userID int64) (any, error) {
		return h.commentService.Update(ctx, commentID, userID, req)
	})
}

// Delete handles DELETE /api/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.withComment(w, r, "delete comment", func(ctx context.Context, commentID, userID int64) (any, error) {
		return h.commentService.Delete(ctx, commentID, userID)
	})
}

func (h *CommentHandler) withComment(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, commentID, userID int64) (any, error)) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := idParam(r, "commentId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	body, err := fn(r.Context(), commentID, userID)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
