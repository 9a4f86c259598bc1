// Package main runs the live interaction engine HTTP server with WebSocket
// sync and graceful shutdown.
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

	"github.com/lyra-academy/live-engine/config"
	"github.com/lyra-academy/live-engine/internal/auth"
	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/middleware"
	"github.com/lyra-academy/live-engine/internal/participants"
	"github.com/lyra-academy/live-engine/internal/questions"
	"github.com/lyra-academy/live-engine/internal/reactions"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/internal/state"
	"github.com/lyra-academy/live-engine/internal/submissions"
	"github.com/lyra-academy/live-engine/internal/webinars"
	"github.com/lyra-academy/live-engine/pkg/database"
	"github.com/lyra-academy/live-engine/pkg/redis"
	"github.com/lyra-academy/live-engine/pkg/response"
	"github.com/lyra-academy/live-engine/pkg/storage"
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
	if cfg.AWS.BannerBucket != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			BannerBucket:         cfg.AWS.BannerBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Webinars
	webinarRepo := webinars.NewRepository(pool)

	// Interactions
	interactionRepo := interactions.NewRepository(pool)
	interactionCtrl := interactions.NewController(interactionRepo, logger)
	interactionHandler := interactions.NewHandler(interactionCtrl, webinarRepo, hub, s3Client, logger)

	// Responses
	responseRepo := submissions.NewRepository(pool)
	gate := submissions.NewGate(interactionRepo, responseRepo, logger)
	submissionHandler := submissions.NewHandler(gate, responseRepo, interactionCtrl, webinarRepo, hub)

	// Q&A
	questionRepo := questions.NewRepository(pool)
	questionHandler := questions.NewHandler(questionRepo, hub)

	// Reactions
	reactionRepo := reactions.NewRepository(pool)
	reactionHandler := reactions.NewHandler(reactionRepo, hub)

	// Participants (presence rows, peak audience)
	participantRepo := participants.NewRepository(pool)
	participantHandler := participants.NewHandler(participantRepo)
	tracker := participants.NewTracker(participantRepo, hub, logger)
	tracker.Attach()

	// Per-webinar sync clients, pushed to viewers over the hub
	syncStore := state.NewPGStore(interactionRepo, responseRepo, questionRepo, reactionRepo, participantRepo)
	supervisor := state.NewSupervisor(syncStore, redisPubSub, hub, logger)
	hub.SetRoomHandlers(supervisor.RoomOpened, supervisor.RoomClosed)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Interactions: host lifecycle
		api.POST("/webinars/:id/interactions", middleware.RequireRole("admin", "host"), interactionHandler.Create)
		api.GET("/webinars/:id/interactions/host", middleware.RequireRole("admin", "host"), interactionHandler.ListForHost)
		api.POST("/webinars/:id/interactions/advance", middleware.RequireRole("admin", "host"), interactionHandler.Advance)
		api.POST("/interactions/:id/activate", middleware.RequireRole("admin", "host"), interactionHandler.Activate)
		api.POST("/interactions/:id/end", middleware.RequireRole("admin", "host"), interactionHandler.End)
		api.POST("/interactions/:id/banner", middleware.RequireRole("admin", "host"), interactionHandler.UploadBanner)
		api.GET("/interactions/:id/tally/host", middleware.RequireRole("admin", "host"), submissionHandler.HostTally)

		// Interactions: audience
		api.GET("/webinars/:id/interactions", interactionHandler.ListByWebinar)
		api.GET("/webinars/:id/interactions/current", interactionHandler.Current)
		api.GET("/interactions/:id/banner-url", interactionHandler.BannerURL)

		// Responses
		api.POST("/interactions/:id/responses", submissionHandler.Submit)
		api.GET("/interactions/:id/responses/me", submissionHandler.HasAnswered)
		api.GET("/interactions/:id/tally", submissionHandler.Tally)

		// Q&A
		api.POST("/webinars/:id/questions", questionHandler.Create)
		api.GET("/webinars/:id/questions", questionHandler.ListVisible)
		api.POST("/questions/:id/upvote", questionHandler.Upvote)
		api.PATCH("/questions/:id/flag", middleware.RequireRole("admin", "host"), questionHandler.SetFlag)

		// Reactions
		api.POST("/webinars/:id/reactions", reactionHandler.Create)
		api.GET("/webinars/:id/reactions", reactionHandler.Counts)

		// Participants
		api.GET("/webinars/:id/participants/count", participantHandler.Count)
		api.GET("/webinars/:id/participants", middleware.RequireRole("admin", "host"), participantHandler.List)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

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
