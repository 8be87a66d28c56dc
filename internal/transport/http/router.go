package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"snapbee/internal/handler"
	"snapbee/internal/httputil"
	authmw "snapbee/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	StoryHandler   *handler.StoryHandler
	FeedHandler    *handler.FeedHandler
	MediaHandler   *handler.MediaHandler
	Verifier       authmw.TokenVerifier
	Logger         *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	optional := authmw.OptionalAuthMiddleware(cfg.Verifier)
	required := authmw.AuthMiddleware(cfg.Verifier)

	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/id/{id}", cfg.UserHandler.GetByID)
			r.Get("/username/{username}", cfg.UserHandler.GetByUsername)
			r.Get("/users/{userIds}", cfg.UserHandler.GetByIDs)
			r.Get("/search", cfg.UserHandler.Search)
			r.Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
			r.Get("/{id}/following", cfg.FollowHandler.GetFollowing)
		})
		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Get("/req", cfg.UserHandler.Me)
			r.Put("/follow/{userId}", cfg.FollowHandler.Follow)
			r.Put("/unfollow/{userId}", cfg.FollowHandler.Unfollow)
			r.Put("/update", cfg.UserHandler.Update)
			r.Post("/avatar", cfg.UserHandler.UploadAvatar)
			r.Get("/saved", cfg.PostHandler.GetSaved)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/all/{userId}", cfg.PostHandler.GetByOwner)
			r.Get("/following/{userIds}", cfg.PostHandler.GetByOwners)
			r.Get("/{postId}", cfg.PostHandler.Get)
			r.Get("/{postId}/comments", cfg.CommentHandler.ListByPost)
		})
		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Post("/create", cfg.PostHandler.Create)
			r.Put("/like/{postId}", cfg.PostHandler.Like)
			r.Put("/unlike/{postId}", cfg.PostHandler.Unlike)
			r.Put("/save/{postId}", cfg.PostHandler.Save)
			r.Put("/unsave/{postId}", cfg.PostHandler.Unsave)
			r.Delete("/delete/{postId}", cfg.PostHandler.Delete)
		})
	})

	r.Route("/api/comments", func(r chi.Router) {
		r.Get("/{commentId}", cfg.CommentHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Post("/create/{postId}", cfg.CommentHandler.Create)
			r.Put("/like/{commentId}", cfg.CommentHandler.Like)
			r.Put("/unlike/{commentId}", cfg.CommentHandler.Unlike)
			r.Put("/{commentId}", cfg.CommentHandler.Update)
			r.Delete("/{commentId}", cfg.CommentHandler.Delete)
		})
	})

	r.Route("/api/story", func(r chi.Router) {
		r.Get("/{userId}", cfg.StoryHandler.GetByUser)
		r.With(required).Post("/create", cfg.StoryHandler.Create)
	})

	r.Group(func(r chi.Router) {
		r.Use(required)
		r.Get("/feed", cfg.FeedHandler.GetFeed)
		r.Post("/media/presign", cfg.MediaHandler.Presign)
	})

	return r
}
