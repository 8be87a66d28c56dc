package handler

import (
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type StoryHandler struct {
	storyService *service.StoryService
	logger       *zap.Logger
}

func NewStoryHandler(storyService *service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
		logger:       logger.With(zap.String("component", "story_handler")),
	}
}

// Create handles POST /api/story/create
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.storyService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, "create story", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, story)
}

// GetByUser handles GET /api/story/{userId}
func (h *StoryHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userId")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	stories, err := h.storyService.GetByUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "get stories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stories)
}
