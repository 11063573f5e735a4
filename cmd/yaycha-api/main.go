package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/yaycha/internal/cache"
	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/internal/consumer"
	"github.com/weiawesome/yaycha/internal/handler"
	"github.com/weiawesome/yaycha/internal/hub"
	"github.com/weiawesome/yaycha/internal/media"
	"github.com/weiawesome/yaycha/internal/reconciler"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/internal/scheduler"
	"github.com/weiawesome/yaycha/internal/search"
	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/internal/store"
	"github.com/weiawesome/yaycha/pkg/database"
	"github.com/weiawesome/yaycha/pkg/jwt"
	pkglog "github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/pubsub"
	"github.com/weiawesome/yaycha/pkg/storage"
)

const serviceName = "yaycha-api"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(pkglog.WithLogger(context.Background(), logger))
	defer cancel()

	// 3. Database and schema
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	userRepo := repository.NewGormUserRepository(db)
	postRepo := repository.NewGormPostRepository(db)
	commentRepo := repository.NewGormCommentRepository(db)
	likeRepo := repository.NewGormLikeRepository(db)
	followRepo := repository.NewGormFollowRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)

	// 4. Redis-backed caches and counters, in-process fallbacks without redis
	var (
		redisClient *redis.Client
		userCache   cache.UserCache   = cache.NopUserCache{}
		searchCache cache.SearchCache = cache.NopSearchCache{}
		followStore store.FollowStore = store.NewMemoryFollowStore()
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		userCache = cache.NewRedisUserCache(redisClient, cfg.Cache.Prefix)
		searchCache = cache.NewRedisSearchCache(redisClient, cfg.Cache.Prefix)
		followStore = store.NewRedisFollowStore(redisClient, cfg.Cache.Prefix)
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	} else {
		logger.Warn().Msg("redis disabled; using in-process caches")
	}

	// 5. Event bus for live notifications
	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pubsub")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("pubsub ready")

	// 6. Upload storage and image processing
	fileStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create storage")
	}
	images := media.NewProcessor(fileStore, media.Options{
		AvatarSize:  cfg.Media.AvatarSize,
		CoverWidth:  cfg.Media.CoverWidth,
		CoverHeight: cfg.Media.CoverHeight,
		JPEGQuality: cfg.Media.JPEGQuality,
	})

	// 7. Search backend
	backend, err := search.New(ctx, cfg.Search, userRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create search backend")
	}
	logger.Info().Str("backend", backend.Name()).Msg("search backend ready")

	// 8. Auth
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt manager")
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// 9. Services
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, bus, service.NotificationServiceConfig{
		ListLimit: cfg.Notification.ListLimit,
		Retention: cfg.Notification.Retention,
	})
	graphSvc := service.NewSocialGraphService(followRepo, userRepo, followStore, notificationSvc, cfg.CDC.Enabled)
	userSvc := service.NewUserService(userRepo, postRepo, graphSvc, userCache, backend, searchCache, tokens, images, service.UserServiceConfig{
		UserTTL:   cfg.Cache.UserTTL,
		SearchTTL: cfg.Cache.SearchTTL,
	})
	contentSvc := service.NewContentService(userRepo, postRepo, commentRepo, notificationSvc)
	likeSvc := service.NewLikeService(likeRepo, postRepo, commentRepo, notificationSvc)

	// 10. Background workers
	var cdcConsumer *consumer.ConfluentConsumer
	if cfg.CDC.Enabled {
		cc, err := consumer.NewConfluentConsumer(cfg.CDC.Brokers, cfg.CDC.Topic, cfg.CDC.GroupID, graphSvc)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create CDC consumer")
		}
		if err := cc.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start CDC consumer")
		}
		cdcConsumer = cc
		logger.Info().Str("topic", cfg.CDC.Topic).Msg("CDC consumer started")
	}

	rec := reconciler.New(followStore, followRepo, cfg.Reconciler)
	rec.Start(ctx)
	logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("top_n", cfg.Reconciler.TopN).Msg("reconciler started")

	notificationHub := hub.NewHub(bus, cfg.WebSocket)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := notificationHub.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("notification hub stopped")
		}
	}()

	cronJobs, err := scheduler.New(ctx, notificationSvc, cfg.Notification.PurgeSchedule)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create scheduler")
	}
	cronJobs.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(time.Minute, stopCleanup)

	// 11. HTTP routes
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(metrics.GinMiddleware())

	r.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Yaycha API"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler.NewUserHandler(userSvc, authMiddleware, limiter, cfg.Media.MaxUploadBytes).RegisterRoutes(r)
	handler.NewContentHandler(contentSvc, likeSvc, authMiddleware).RegisterRoutes(r)
	handler.NewSocialHandler(graphSvc, authMiddleware).RegisterRoutes(r)
	handler.NewNotificationHandler(notificationSvc, authMiddleware).RegisterRoutes(r)
	handler.NewWSHandler(notificationHub, authMiddleware).RegisterRoutes(r)
	handler.NewUploadHandler(fileStore).RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg(serviceName + " starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 12. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		// Stops the hub, the CDC loop and the reconciler ticker.
		cancel()
		<-hubDone

		if cdcConsumer != nil {
			if err := cdcConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing CDC consumer")
			}
		}

		rec.Stop()
		<-rec.Done()

		<-cronJobs.Stop().Done()
		close(stopCleanup)
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg(serviceName + " stopped")
	case <-time.After(timeout):
		logger.Warn().Dur("timeout", timeout).Msg("shutdown timed out")
	}
}
