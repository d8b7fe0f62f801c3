package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"user-browser-service/cmd/api/di"
	"user-browser-service/cmd/api/server"
	"user-browser-service/internal/config"
	"user-browser-service/pkg/logger"

	"go.uber.org/zap"
)

// App ties the HTTP server to the list controller and its backing resources.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Server      *server.Server
	Container   *di.Container
	Environment string
}

// New loads config from CONFIG_PATH, builds the logger and wires the container.
func New() (*App, error) {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env := environment()

	l, err := logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     cfg.Logger.OutputPath,
		EnableSampling: cfg.Logger.EnableSampling,
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(context.Background(), cfg, l)
	if err != nil {
		_ = l.Sync()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      l,
		Server:      server.New(cfg, l, container.ViewHandler, container.RateLimiter, env),
		Container:   container,
		Environment: env,
	}, nil
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("user browser starting",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Environment),
		zap.String("randomuser", a.Config.RandomUser.BaseURL),
		zap.Int("page_size", a.Config.RandomUser.PageSize),
		zap.Bool("redis", a.Config.Redis.Enabled),
		zap.Bool("auto_start", a.Config.List.AutoStart),
	)

	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("server panic: %v", r)
			}
		}()
		errChan <- a.Server.Start()
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errChan:
		if err != nil {
			a.Logger.Error("server stopped", zap.Error(err))
			return errors.Join(fmt.Errorf("server error: %w", err), a.shutdown())
		}
		return a.shutdown()
	}
}

// shutdown stops accepting requests first, then cancels pending fetches and
// releases Redis.
func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if a.Server != nil && a.Server.HTTP != nil {
		if err := a.Server.HTTP.Shutdown(ctx); err != nil {
			a.Logger.Error("failed to shutdown HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}

	if a.Container != nil {
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("user browser stopped", zap.Duration("timeout", timeout))

	// stdout and stderr cannot be synced on most platforms
	_ = a.Logger.Sync()

	return errors.Join(errs...)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

func environment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
