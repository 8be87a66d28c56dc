package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
	logger       *zap.Logger
}

// NewUserHandler wires the user endpoints. mediaService may be nil when R2
// is not configured; avatar uploads are then unavailable.
func NewUserHandler(userService *service.UserService, mediaService *service.MediaService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
		logger:       logger.With(zap.String("component", "user_handler")),
	}
}

// GetByID handles GET /api/users/id/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID, viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// GetByUsername handles GET /api/users/username/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfileByUsername(r.Context(), chi.URLParam(r, "username"), viewerID(r))
	if err != nil {
		writeError(w, h.logger, "get user by username", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// GetByIDs handles GET /api/users/users/{userIds}
func (h *UserHandler) GetByIDs(w http.ResponseWriter, r *http.Request) {
	ids, ok := idListParam(r, "userIds")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID list")
		return
	}

	users, err := h.userService.GetByIDs(r.Context(), ids)
	if err != nil {
		writeError(w, h.logger, "get users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Search handles GET /api/users/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)
	if limit < 0 || limit > model.MaxSearchLimit {
		httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
		return
	}

	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"), limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, "search users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Me handles GET /api/users/req
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "me", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/update
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch model.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), &patch, userID)
	if err != nil {
		writeError(w, h.logger, "update user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, user)
}

// UploadAvatar handles POST /api/users/avatar
// Normalizes the image, stores it in R2 and points the profile at it.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.mediaService == nil {
		writeError(w, h.logger, "upload avatar", model.ErrMediaDisabled)
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	current, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "upload avatar", err)
		return
	}

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		writeError(w, h.logger, "upload avatar", err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), &model.UserPatch{ID: userID, Image: &upload.URL}, userID)
	if err != nil {
		if delErr := h.mediaService.DeleteObject(r.Context(), upload.Key); delErr != nil {
			h.logger.Warn("orphaned avatar", zap.String("key", upload.Key), zap.Error(delErr))
		}
		writeError(w, h.logger, "upload avatar", err)
		return
	}

	if current.Image != nil {
		if oldKey, ours := h.mediaService.KeyFromURL(*current.Image); ours {
			if err := h.mediaService.DeleteObject(r.Context(), oldKey); err != nil {
				h.logger.Warn("failed to delete previous avatar", zap.String("key", oldKey), zap.Error(err))
			}
		}
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
