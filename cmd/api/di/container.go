package di

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registration-service/cmd/api/infrastructure"
	"user-registration-service/internal/adapter/db/postgres"
	ginhandler "user-registration-service/internal/adapter/gin/handler"
	"user-registration-service/internal/adapter/gin/middleware"
	ginrouter "user-registration-service/internal/adapter/gin/router"
	"user-registration-service/internal/config"
	"user-registration-service/internal/openapi"
	"user-registration-service/internal/usecase/auth"
	redisclient "user-registration-service/pkg/redis"
	"user-registration-service/pkg/security"
	"user-registration-service/pkg/session"
)

// Container holds the registration service's dependencies. RedisClient and
// RateLimiter stay nil when Redis is disabled.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Registry    *prometheus.Registry
	AuthUC      auth.Usecase
	RateLimiter *middleware.RateLimiter
	Router      *gin.Engine
}

// NewContainer validates cfg and builds every dependency. Resources opened
// before a failure are released.
func NewContainer(cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if c.DB, err = infrastructure.NewDatabase(cfg, l); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if c.RedisClient, err = infrastructure.NewRedisClient(cfg, l); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	if c.RedisClient != nil {
		c.RateLimiter = middleware.NewRateLimiter(c.RedisClient, middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		}, l)
	}

	c.AuthUC = auth.New(
		postgres.NewUserRepoPG(c.DB, l),
		postgres.NewActivityLogRepoPG(c.DB, l),
		security.NewBcryptHasher(cfg.Security.BcryptCost),
		security.ParsePolicy(cfg.Security.PasswordPolicy),
		l,
	)

	docJSON, err := apiDocument(cfg)
	if err != nil {
		return nil, err
	}

	c.registerCollectors(sqlDB)

	c.Router = ginrouter.SetupRouter(ginrouter.Deps{
		ServiceName: cfg.Logger.ServiceName,
		AuthHandler: ginhandler.NewAuthHandler(c.AuthUC, l),
		DocsHandler: ginhandler.NewDocsHandler(docJSON, cfg.App.IsProduction(), l),
		Security: middleware.SecurityConfig{
			Development:       cfg.App.IsDevelopment(),
			ProtectedPrefixes: cfg.Security.ProtectedPrefixes,
		},
		Verifier:    session.NewManager(cfg.Security.SessionSecret),
		RateLimiter: c.RateLimiter,
		Registry:    c.Registry,
		DB:          sqlDB,
		Log:         l,
	})

	return c, nil
}

func apiDocument(cfg *config.Config) ([]byte, error) {
	doc, err := openapi.New(openapi.Options{
		Production:    cfg.App.IsProduction(),
		PublicBaseURL: cfg.App.PublicBaseURL,
		HTTPPort:      cfg.App.HTTPPort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load API document: %w", err)
	}
	return doc.JSON()
}

func (c *Container) registerCollectors(sqlDB *sql.DB) {
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, c.Config.DB.Driver),
	)
}

// Close releases Redis and the database. Safe on a partially built container.
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
