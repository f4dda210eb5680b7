package middleware

import (
	"net/http"

	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine builds a gin engine with the middleware stack every service
// shares, plus /health and /metrics.
func NewEngine(logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.ContextWithFallback = true

	router.Use(
		RequestID(),
		LoggingMiddleware(logger),
		Recovery(logger),
		MetricsMiddleware(),
		ErrorHandler(logger),
	)
	router.NoRoute(NoRoute(logger))
	router.NoMethod(NoMethod(logger))

	router.GET("/health", func(c *gin.Context) {
		result.Success(c, http.StatusOK, gin.H{"status": "up"})
	})
	router.GET("/metrics", MetricsHandler())
	return router
}
