package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/guttosm/fiscalpulse/docs" // swagger spec
	"github.com/guttosm/fiscalpulse/internal/middleware"
)

const (
	// Uploads of large archives take a while to parse.
	requestTimeout = 2 * time.Minute
	rateLimit      = 60
	rateWindow     = time.Minute
)

// NewRouter creates a Gin engine with global middlewares, /metrics, swagger
// and the /api/v1 routes. Health probes are registered by app.InitializeApp.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.NewRateLimiter(rateLimit, rateWindow).Handler(),
		middleware.Timeout(requestTimeout),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/reports", handler.PostReport)
		v1.GET("/summary", handler.GetSummary)
	}

	return router
}
