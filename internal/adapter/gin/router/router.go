package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-registration-service/internal/adapter/gin/handler"
	"user-registration-service/internal/adapter/gin/middleware"
	"user-registration-service/pkg/logger"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the router wires together.
type Deps struct {
	ServiceName string
	AuthHandler *handler.AuthHandler
	DocsHandler *handler.DocsHandler
	Security    middleware.SecurityConfig
	Verifier    middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter
	// Registry receives the HTTP metrics; /metrics serves its contents.
	Registry *prometheus.Registry
	// DB is optional; when set /health reports its reachability.
	DB  Pinger
	Log *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	metrics := middleware.NewMetrics(d.Registry)

	router.Use(logger.Recovery(d.Log))
	router.Use(logger.RequestID())
	router.Use(logger.Access(d.Log))
	router.Use(metrics.Handler())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))
	router.Use(middleware.Security(d.Security, d.Verifier, d.Log))
	router.Use(d.RateLimiter.Handler())

	router.GET("/health", health(d.ServiceName, d.DB))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.POST("/auth/register", d.AuthHandler.Register)
		api.GET("/docs", d.DocsHandler.Docs)
	}

	// Reachable in development only, see middleware.Security.
	router.GET(middleware.DevPrefix+"/api-docs/*any", gin.WrapH(httpSwagger.Handler(
		httpSwagger.URL("/api/docs"),
	)))

	return router
}

func health(service string, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": service,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": service,
		})
	}
}
