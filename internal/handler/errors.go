package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/transport/http/middleware"
)

// writeError maps a service error to its HTTP response. Errors outside the
// model categories are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	msg := model.Message(err)
	switch model.Kind(err) {
	case model.ErrNotFound:
		httputil.WriteNotFound(w, msg)
	case model.ErrForbidden:
		httputil.WriteForbidden(w, msg)
	case model.ErrUnauthenticated:
		httputil.WriteUnauthorized(w, msg)
	case model.ErrConflict:
		httputil.WriteConflict(w, msg)
	case model.ErrValidation:
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, msg)
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, msg)
		default:
			httputil.WriteValidationError(w, msg)
		}
	default:
		logger.Error("request failed", zap.String("op", op), zap.Error(err))
		httputil.WriteInternalError(w, "Internal server error")
	}
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// idListParam parses a comma-separated id list such as "1,2,3".
func idListParam(r *http.Request, name string) ([]int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return []int64{}, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func viewerID(r *http.Request) *int64 {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
