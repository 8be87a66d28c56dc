package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
	logger        *zap.Logger
}

func NewFollowHandler(followService *service.FollowService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		logger:        logger.With(zap.String("component", "follow_handler")),
	}
}

// Follow handles PUT /api/users/follow/{userId}
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "follow", h.followService.Follow)
}

// Unfollow handles PUT /api/users/unfollow/{userId}
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "unfollow", h.followService.Unfollow)
}

func (h *FollowHandler) transition(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, requesterID, targetID int64) (*model.MessageResponse, error)) {
	requesterID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(r, "userId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	res, err := fn(r.Context(), requesterID, targetID)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// GetFollowers handles GET /api/users/{id}/followers?cursor=&limit=
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	res, err := h.followService.GetFollowers(r.Context(), userID, r.URL.Query().Get("cursor"), queryLimit(r), viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get followers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// GetFollowing handles GET /api/users/{id}/following?cursor=&limit=
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	res, err := h.followService.GetFollowing(r.Context(), userID, r.URL.Query().Get("cursor"), queryLimit(r), viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get following", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
