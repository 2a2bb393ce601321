// Package main runs the event booking HTTP server with WebSocket push and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/bookings"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/media"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/internal/notify"
	"github.com/aura-events/backend/internal/realtime"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/internal/store"
	"github.com/aura-events/backend/internal/volunteers"
	"github.com/aura-events/backend/internal/worker"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		logger.Fatal("time zone", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var eventStore store.EventStore
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		sqliteStore, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite store", zap.Error(err))
		}
		defer sqliteStore.Close()
		eventStore = sqliteStore
	case config.StoreDriverMemory:
		eventStore = store.NewMemory(nil)
	default:
		eventStore = store.NewPostgres(pool)
	}
	logger.Info("snapshot store ready", zap.String("driver", cfg.Store.Driver))

	var s3Client *storage.S3
	if cfg.AWS.MediaBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			MediaBucket:     cfg.AWS.MediaBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	sched := scheduling.New(eventStore, notify.NewQueueEmitter(jobQueue, logger),
		scheduling.WithLocation(loc),
		scheduling.WithLogger(logger),
		scheduling.WithMediaPurger(media.NewQueuePurger(jobQueue, logger)),
	)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authRepo := auth.NewRepository(pool)
	if err := auth.SyncDirectory(ctx, authRepo, sched, logger); err != nil {
		logger.Fatal("sync user directory", zap.Error(err))
	}
	authHandler := auth.NewHandler(authRepo, sched, jwtService, logger)

	eventHandler := events.NewHandler(sched, loc, logger)
	bookingHandler := bookings.NewHandler(sched, logger)
	volunteerHandler := volunteers.NewHandler(sched, logger)
	var objects media.ObjectStore
	if s3Client != nil {
		objects = s3Client
	}
	mediaHandler := media.NewHandler(sched, objects, cfg.AWS.MaxUploadMB, logger)
	notificationHandler := notifications.NewHandler(notifications.NewRepository(pool), logger)

	hub := realtime.NewHub(logger, realtime.NewRedisPubSub(rdb.Client, logger))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if !rdb.Healthy(c.Request.Context()) || pool.Ping(c.Request.Context()) != nil {
			response.Fail(c, http.StatusServiceUnavailable, "unhealthy", "dependencies unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)

		// Tickets and waitlist
		api.GET("/tickets", bookingHandler.Tickets)
		api.POST("/events/:id/tickets", bookingHandler.Book)
		api.DELETE("/events/:id/tickets", bookingHandler.Cancel)
		api.POST("/events/:id/tickets/admin-cancel", bookingHandler.AdminCancel)
		api.GET("/events/:id/waitlist", bookingHandler.Waitlist)
		api.POST("/events/:id/waitlist", bookingHandler.JoinWaitlist)
		api.DELETE("/events/:id/waitlist", bookingHandler.LeaveWaitlist)

		// Volunteers
		api.GET("/volunteers/invitations", volunteerHandler.Invitations)
		api.GET("/events/:id/volunteers", volunteerHandler.List)
		api.POST("/events/:id/volunteers", volunteerHandler.Invite)
		api.POST("/events/:id/volunteers/respond", volunteerHandler.Respond)
		api.DELETE("/events/:id/volunteers/:userId", volunteerHandler.Remove)

		// Media (S3)
		api.POST("/events/:id/media", mediaHandler.Upload)
		api.DELETE("/media/:id", mediaHandler.Delete)

		// Inbox
		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/read", notificationHandler.MarkRead)

		// WebSocket (token in query for browsers)
		api.GET("/ws", realtime.ServeWs(hub, logger))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Reminders and live notices also go out when nobody lists events.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	sweeper := worker.NewSweeper(sched.Sweep, time.Duration(cfg.Scheduling.SweepInterval)*time.Second, logger)
	go sweeper.Run(sweepCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweepCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
