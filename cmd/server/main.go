package main

import (
	"github.com/ndrake454/QuizLight-sub001/internal/config"
	"github.com/ndrake454/QuizLight-sub001/internal/database"
	"github.com/ndrake454/QuizLight-sub001/internal/handlers"
	"github.com/ndrake454/QuizLight-sub001/internal/middleware"
	"github.com/ndrake454/QuizLight-sub001/internal/pollstore"
	"github.com/ndrake454/QuizLight-sub001/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := pollstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()
	cursors := pollstore.New(rdb)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	bankService := services.NewBankService(db)
	scoringService := services.NewScoringService()
	sequencerService := services.NewSequencerService()
	sessionService := services.NewSessionService(db, sequencerService, bankService)
	ledgerService := services.NewLedgerService(db, scoringService, bankService)
	registryService := services.NewRegistryService(db, sequencerService, bankService)
	syncService := services.NewSyncService(db, sequencerService, bankService, ledgerService, cursors)

	authHandler := handlers.NewAuthHandler(authService, logger)
	sessionHandler := handlers.NewSessionHandler(sessionService, registryService, logger)
	playHandler := handlers.NewPlayHandler(registryService, ledgerService, syncService,
		cfg.PlayPollSeconds, cfg.BoardPollSeconds, logger)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/start", sessionHandler.Start)
			sessions.POST("/:id/next", sessionHandler.Next)
			sessions.POST("/:id/end", sessionHandler.End)
			sessions.POST("/:id/close", sessionHandler.Close)
			sessions.GET("/:id/leaderboard", sessionHandler.GetLeaderboard)
			sessions.GET("/:id/roster", sessionHandler.GetRoster)
		}

		play := api.Group("/play")
		{
			play.POST("/join", playHandler.Join)
			play.POST("/answer", playHandler.Answer)
			play.GET("/poll", playHandler.Poll)
			play.GET("/events", playHandler.Events)
			play.GET("/leaderboard", playHandler.Leaderboard)
		}
	}

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
