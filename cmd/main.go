package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/studyforge/studyforge-backend/internal/clients/redis"
	"github.com/studyforge/studyforge-backend/internal/db"
	"github.com/studyforge/studyforge-backend/internal/handlers"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/middleware"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/scheduler"
	"github.com/studyforge/studyforge-backend/internal/server"
	"github.com/studyforge/studyforge-backend/internal/services"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	deckRepo := repos.NewDeckRepo(thePG, log)
	flashcardRepo := repos.NewFlashcardRepo(thePG, log)
	studySessionRepo := repos.NewStudySessionRepo(thePG, log)
	usageEventRepo := repos.NewUsageEventRepo(thePG, log)

	// Redis cache is optional: without it stats are recomputed per read.
	var statsCache redis.StatsCache
	if cache, cErr := redis.NewStatsCache(log); cErr != nil {
		log.Warn("Stats cache disabled", "error", cErr)
	} else {
		statsCache = cache
		defer statsCache.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	usageService := services.NewUsageService(thePG, log, userRepo, usageEventRepo)
	progressService := services.NewProgressService(thePG, log, deckRepo, flashcardRepo, studySessionRepo, statsCache)
	deckService := services.NewDeckService(thePG, log, deckRepo, flashcardRepo, usageService, progressService)
	studyService := services.NewStudyService(thePG, log, deckRepo, flashcardRepo, studySessionRepo, progressService)
	generationService := services.NewGenerationService(thePG, log, deckRepo, flashcardRepo, userRepo, usageService, openaiClient, progressService)
	billingService := services.NewBillingService(thePG, log, userRepo, services.LoadBillingConfig(log))

	// Scheduler
	log.Info("Setting up scheduler from main...")
	resetScheduler := scheduler.New(log, usageService)
	resetScheduler.Start()
	defer resetScheduler.Stop()

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	deckHandler := handlers.NewDeckHandler(deckService, progressService)
	generationHandler := handlers.NewGenerationHandler(generationService)
	studyHandler := handlers.NewStudyHandler(studyService)
	statsHandler := handlers.NewStatsHandler(progressService)
	usageHandler := handlers.NewUsageHandler(usageService)
	billingHandler := handlers.NewBillingHandler(billingService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		DeckHandler:       deckHandler,
		GenerationHandler: generationHandler,
		StudyHandler:      studyHandler,
		StatsHandler:      statsHandler,
		UsageHandler:      usageHandler,
		BillingHandler:    billingHandler,
		AllowOrigins:      allowOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
