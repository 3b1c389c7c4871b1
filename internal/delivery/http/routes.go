package http

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check stays outside the rate limit
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("/search", handler.SearchProducts)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/vocabulary", handler.GetVocabulary)
			catalog.POST("/refresh", handler.RefreshCatalog)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.POST("/:id/navigate", handler.NavigateSession)
		}
	}

	return router
}
