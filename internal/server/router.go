package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/handlers"
	"github.com/studyforge/studyforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	DeckHandler       *handlers.DeckHandler
	GenerationHandler *handlers.GenerationHandler
	StudyHandler      *handlers.StudyHandler
	StatsHandler      *handlers.StatsHandler
	UsageHandler      *handlers.UsageHandler
	BillingHandler    *handlers.BillingHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)
	// Stripe authenticates via signature, not a bearer token.
	router.POST("/stripe/webhook", cfg.BillingHandler.Webhook)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Decks
	protected.POST("/decks", cfg.DeckHandler.Create)
	protected.GET("/decks", cfg.DeckHandler.List)
	protected.GET("/decks/:id", cfg.DeckHandler.Get)
	protected.DELETE("/decks/:id", cfg.DeckHandler.Delete)
	protected.POST("/decks/:id/cards", cfg.DeckHandler.AddFlashcard)
	protected.GET("/decks/:id/cards", cfg.DeckHandler.ListFlashcards)
	protected.GET("/decks/:id/export", cfg.DeckHandler.Export)
	protected.GET("/decks/:id/stats", cfg.DeckHandler.Stats)
	// Generation
	protected.POST("/generate-flashcards", cfg.GenerationHandler.Generate)
	// Study
	protected.POST("/study/outcome", cfg.StudyHandler.RecordOutcome)
	protected.GET("/stats", cfg.StatsHandler.UserStats)
	// Usage
	protected.GET("/usage/limits", cfg.UsageHandler.Limits)
	protected.GET("/usage/stats", cfg.UsageHandler.Stats)
	// Billing
	protected.POST("/stripe/create-checkout-session", cfg.BillingHandler.CreateCheckoutSession)
	protected.POST("/stripe/create-portal-session", cfg.BillingHandler.CreatePortalSession)

	return router
}
