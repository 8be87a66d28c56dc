package handler

import (
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
	logger       *zap.Logger
}

// NewMediaHandler accepts a nil service when object storage is not configured.
func NewMediaHandler(mediaService *service.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		logger:       logger.With(zap.String("component", "media_handler")),
	}
}

// Presign handles POST /media/presign
func (h *MediaHandler) Presign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if h.mediaService == nil {
		writeError(w, h.logger, "presign", model.ErrMediaDisabled)
		return
	}

	var req model.PresignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.mediaService.Presign(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "presign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
