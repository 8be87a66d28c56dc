package handler

import (
	"net/http"

	"go.uber.org/zap"

	"snapbee/internal/httputil"
	"snapbee/internal/model"
	"snapbee/internal/service"
)

// AuthHandler serves sign-up and login.
type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger.With(zap.String("component", "auth_handler")),
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, "signup", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, "login", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
