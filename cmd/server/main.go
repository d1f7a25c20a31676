// Package main runs the event planning HTTP server with WebSocket push and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/planner-suite/backend/config"
	"github.com/planner-suite/backend/internal/auth"
	"github.com/planner-suite/backend/internal/events"
	"github.com/planner-suite/backend/internal/export"
	"github.com/planner-suite/backend/internal/guard"
	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/notifications"
	"github.com/planner-suite/backend/internal/participants"
	"github.com/planner-suite/backend/internal/profiles"
	"github.com/planner-suite/backend/internal/proposals"
	"github.com/planner-suite/backend/internal/realtime"
	"github.com/planner-suite/backend/internal/schedules"
	"github.com/planner-suite/backend/internal/session"
	"github.com/planner-suite/backend/pkg/database"
	"github.com/planner-suite/backend/pkg/queue"
	"github.com/planner-suite/backend/pkg/redis"
	"github.com/planner-suite/backend/pkg/response"
	"github.com/planner-suite/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	// Sessions
	sessionStore := session.NewRedisStore(rdb.Client)
	sessions, err := session.NewService(sessionStore, cfg.Session.Secret,
		time.Duration(cfg.Session.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Session.MaxAgeDays)*24*time.Hour, logger)
	if err != nil {
		logger.Fatal("session service", zap.Error(err))
	}
	cookies := session.CookieCodec{
		Name:   cfg.Session.CookieName,
		MaxAge: time.Duration(cfg.Session.MaxAgeDays) * 24 * time.Hour,
		Secure: cfg.Server.Production,
	}

	// Realtime push
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth. One manager per live session, scoped through the registry.
	authRepo := auth.NewRepository(pool)
	managers := auth.NewRegistry(sessions, authRepo, logger)
	oneTimeTokens := auth.NewOneTimeTokens(rdb.Client)
	authHandler := auth.NewHandler(authRepo, sessions, cookies, managers, oneTimeTokens, jobQueue, logger)

	// Features
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, jobQueue, logger)

	scheduleRepo := schedules.NewRepository(pool)
	scheduleHandler := schedules.NewHandler(scheduleRepo, eventRepo, logger)

	participantRepo := participants.NewRepository(pool)
	participantHandler := participants.NewHandler(participantRepo, eventRepo, jobQueue, logger)

	proposalRepo := proposals.NewRepository(pool)
	proposalHandler := proposals.NewHandler(proposalRepo, eventRepo, jobQueue, logger)

	notificationRepo := notifications.NewRepository(pool)
	notificationHandler := notifications.NewHandler(notificationRepo, logger)

	profileRepo := profiles.NewRepository(pool)
	profileHandler := profiles.NewHandler(profileRepo, sessions, cookies, logger)

	exportHandler := export.NewHandler(eventRepo, scheduleRepo, s3Client, cfg.Export.CompanyName, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/", func(c *gin.Context) { response.OK(c, gin.H{"service": "planner-suite"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.POST("/reset-password/confirm", authHandler.ConfirmReset)
		authGroup.GET("/callback", authHandler.Callback)
	}
	router.GET("/api/auth/callback", authHandler.Callback)

	// Dashboard pages (cookie navigation; non-allow decisions are redirects)
	dashboard := router.Group("/dashboard")
	dashboard.Use(middleware.Guard(guard.DefaultChain(), sessions, cookies, authRepo, managers, logger))
	{
		dashboard.GET("/intermittent", participantHandler.ListMine)
		dashboard.GET("/regisseur", eventHandler.List)
		dashboard.GET("/admin", profileHandler.List)
	}

	// Protected API (session cookie or bearer token; failures are 401s)
	api := router.Group("/api")
	api.Use(middleware.Auth(sessions, cookies, managers))
	{
		// Profiles
		api.GET("/profiles/me", profileHandler.GetMe)
		api.PATCH("/profiles/me", profileHandler.UpdateMe)
		api.DELETE("/profiles/me", profileHandler.DeleteMe)
		api.GET("/profiles", middleware.RequireRole(models.RoleRegisseur, models.RoleAdmin), profileHandler.List)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireRole(models.RoleRegisseur, models.RoleAdmin), eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/publish", eventHandler.Publish)
		api.POST("/events/:id/cancel", eventHandler.Cancel)
		api.GET("/events/:id/history", eventHandler.History)
		api.GET("/events/:id/export/pdf", exportHandler.SchedulePDF)

		// Daily schedules
		api.GET("/events/:id/schedules", scheduleHandler.ListByEvent)
		api.POST("/events/:id/schedules", scheduleHandler.Create)
		api.PUT("/events/:id/schedules/:scheduleId", scheduleHandler.Update)
		api.DELETE("/events/:id/schedules/:scheduleId", scheduleHandler.Delete)

		// Participants
		api.GET("/events/:id/participants", participantHandler.ListByEvent)
		api.POST("/events/:id/participants", participantHandler.Invite)
		api.POST("/events/:id/participants/respond", participantHandler.Respond)
		api.GET("/participants/mine", participantHandler.ListMine)

		// Date proposals
		api.GET("/events/:id/proposals", proposalHandler.ListByEvent)
		api.POST("/events/:id/proposals", proposalHandler.Create)
		api.POST("/proposals/:id/vote", proposalHandler.Vote)
		api.POST("/proposals/:id/status", proposalHandler.SetStatus)

		// Notifications
		api.GET("/notifications", notificationHandler.ListMine)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	// WebSocket (session resolved by the auth middleware)
	router.GET("/ws", middleware.Auth(sessions, cookies, managers), realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

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
