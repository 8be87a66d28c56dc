package handler

import (
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
	logger      *zap.Logger
}

func NewFeedHandler(feedService *service.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger.With(zap.String("component", "feed_handler")),
	}
}

// GetFeed handles GET /feed?cursor=&limit=
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	feed, err := h.feedService.GetFeed(r.Context(), userID, r.URL.Query().Get("cursor"), queryLimit(r))
	if err != nil {
		writeError(w, h.logger, "get feed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}
