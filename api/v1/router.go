package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/config"
)

// NewRouter builds the HTTP router with middleware, health check and the v1 routes
func NewRouter(api *API, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger.Named("http")), CORS(cfg.AllowedOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	api.RegisterRoutes(router.Group("/api/v1"))
	return router
}
