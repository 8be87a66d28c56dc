package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/cache"
	"snapbee/internal/config"
	"snapbee/internal/database"
	"snapbee/internal/handler"
	"snapbee/internal/queue"
	"snapbee/internal/redis"
	"snapbee/internal/repository"
	"snapbee/internal/repository/memory"
	"snapbee/internal/service"
	"snapbee/internal/worker"
)

const (
	streamMaxLen    = 100000
	shutdownTimeout = 10 * time.Second
)

// Run wires the application and serves HTTP until SIGINT or SIGTERM.
func Run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Both stay nil interfaces when Redis is not configured.
	var (
		publisher queue.Publisher
		timelines cache.TimelineCache
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()

		publisher = queue.NewPublisher(rdb.Client, streamMaxLen, logger)
		redisTimelines := cache.NewTimelineCache(rdb.Client, logger)
		timelines = redisTimelines

		eventHandler := worker.NewHandler(redisTimelines, store.Follows, store.Posts, logger)
		manager := worker.NewManager(queue.NewConsumer(rdb.Client, logger), eventHandler,
			worker.ManagerConfig{WorkerCount: cfg.WorkerCount}, logger)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("start timeline workers: %w", err)
		}
		defer manager.Stop()
	} else {
		logger.Warn("REDIS_URL not set, feed reads go straight to the store")
	}

	var media *service.MediaService
	if cfg.R2Enabled() {
		media, err = service.NewMediaService(ctx, cfg, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("R2 storage not configured, media endpoints disabled")
	}

	authService := service.NewAuthService(cfg.JWTSecret, cfg.AccessTokenMaxAge)
	userService := service.NewUserService(store.Users, store.Follows, authService, logger)
	followService := service.NewFollowService(store.Follows, store.Users, publisher, logger)
	postService := service.NewPostService(store, publisher, logger)
	commentService := service.NewCommentService(store, logger)
	storyService := service.NewStoryService(store.Stories, store.Users, cfg.StoryTTL, logger)
	feedService := service.NewFeedService(timelines, store, postService, logger)

	retention, err := worker.NewRetention(storyService, cfg.StorySweepInterval, logger)
	if err != nil {
		return err
	}
	if err := retention.Start(); err != nil {
		return err
	}
	defer func() {
		if err := retention.Stop(); err != nil {
			logger.Warn("stop story retention", zap.Error(err))
		}
	}()

	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, logger),
		UserHandler:    handler.NewUserHandler(userService, media, logger),
		FollowHandler:  handler.NewFollowHandler(followService, logger),
		PostHandler:    handler.NewPostHandler(postService, logger),
		CommentHandler: handler.NewCommentHandler(commentService, logger),
		StoryHandler:   handler.NewStoryHandler(storyService, logger),
		FeedHandler:    handler.NewFeedHandler(feedService, logger),
		MediaHandler:   handler.NewMediaHandler(media, logger),
		Verifier:       authService,
		Logger:         logger,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *zap.Logger) (*repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Info("using in-memory store")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(db), func() { db.Close() }, nil
}
