package router

import (
	"net/http"

	"user-browser-service/internal/adapter/gin/handler"
	"user-browser-service/internal/adapter/gin/middleware"
	"user-browser-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter configures and returns a Gin router with all routes and middleware.
// Gestures that can start a fetch go through the rate limiter; reads do not.
func SetupRouter(
	viewHandler *handler.ViewHandler,
	rateLimiter *middleware.RateLimiter,
	serviceName string,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(logger.RequestID())
	router.Use(middleware.Logger(log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	throttle := rateLimiter.Middleware()

	// API v1 routes
	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", viewHandler.GetState)
			users.GET("/:id/selection", viewHandler.Select)
			users.PUT("/search", viewHandler.Search)

			users.POST("/start", throttle, viewHandler.Start)
			users.POST("/refresh", throttle, viewHandler.Refresh)
			users.POST("/load-more", throttle, viewHandler.LoadMore)
			users.POST("/retry", throttle, viewHandler.Retry)
		}
	}

	return router
}
