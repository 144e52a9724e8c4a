package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"user-registration-service/cmd/api/di"
	"user-registration-service/cmd/api/server"
	"user-registration-service/internal/config"
	"user-registration-service/pkg/logger"
)

// App wires the registration API: configuration, logger, dependency
// container and HTTP server.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container
}

// New loads configuration from CONFIG_PATH (default ".") and builds the
// application. Nothing listens until Run.
func New() (*App, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "."
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.NewWithConfig(loggerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(cfg, l)
	if err != nil {
		_ = l.Sync()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    server.New(cfg, l, container.Router),
		Container: container,
	}, nil
}

// Run serves until ctx is canceled or the server stops on its own, then
// releases everything. A server failure takes precedence over shutdown errors.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting registration service",
		zap.String("addr", a.Server.HTTP.Addr),
		zap.Bool("rate_limit", a.Container.RateLimiter != nil),
	)

	serveErr := a.serve(ctx)
	shutdownErr := a.shutdown()

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return shutdownErr
}

func (a *App) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("server panic: %v", r)
			}
		}()
		errCh <- a.Server.Start()
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown requested", zap.NamedError("cause", context.Cause(ctx)))
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Logger.Error("http server shutdown failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Container != nil {
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("releasing resources failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("registration service stopped", zap.Duration("timeout", timeout))

	// stdout and stderr cannot be synced on most platforms
	if err := a.Logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}

	return errors.Join(errs...)
}

func loggerConfig(cfg *config.Config) logger.Config {
	lc := cfg.Logger
	return logger.Config{
		Level:          lc.Level,
		Format:         lc.Format,
		OutputPath:     lc.OutputPath,
		EnableSampling: lc.EnableSampling,
		ServiceName:    lc.ServiceName,
		ServiceVersion: lc.ServiceVersion,
		Environment:    cfg.App.Env,
		Rotation: logger.Rotation{
			MaxSizeMB:  lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAgeDays: lc.MaxAgeDays,
			Compress:   lc.Compress,
		},
	}
}
