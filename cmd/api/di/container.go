package di

import (
	"context"
	"fmt"

	"user-browser-service/cmd/api/infrastructure"
	"user-browser-service/internal/adapter/cache"
	ginhandler "user-browser-service/internal/adapter/gin/handler"
	"user-browser-service/internal/adapter/gin/middleware"
	"user-browser-service/internal/adapter/randomuser"
	"user-browser-service/internal/adapter/source/cached"
	"user-browser-service/internal/config"
	"user-browser-service/internal/usecase/userlist"
	redisclient "user-browser-service/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	RedisClient *redisclient.Client
	Controller  *userlist.Controller
	RateLimiter *middleware.RateLimiter
	ViewHandler *ginhandler.ViewHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize Redis client
	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize cache layer
	var (
		pageCache cache.PageCache
		rawClient *goredis.Client
	)
	if rdb != nil {
		rawClient = rdb.Client
		pageCache = cache.NewRedisPageCache(rawClient, cfg.Redis.CacheTTL(), l)
	}

	// Initialize remote source; the controller owns the fetch timeout
	remote := randomuser.NewClient(cfg.RandomUser.BaseURL, l)
	source := cached.NewCachedSource(remote, pageCache, l)

	// Initialize controller
	controller := userlist.New(source, userlist.Options{
		PageSize:              cfg.RandomUser.PageSize,
		Seed:                  cfg.RandomUser.Seed,
		WarmUpDelay:           cfg.List.WarmUpDelay(),
		LoadMoreDelay:         cfg.List.LoadMoreDelay(),
		FetchTimeout:          cfg.RandomUser.FetchTimeout(),
		RollbackPageOnFailure: cfg.List.RollbackPageOnFailure,
	}, l)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(
		rawClient,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)

	// Initialize Gin handler
	viewHandler := ginhandler.NewViewHandler(controller, l)

	if cfg.List.AutoStart {
		controller.Start()
	}

	return &Container{
		Config:      cfg,
		Logger:      l,
		RedisClient: rdb,
		Controller:  controller,
		RateLimiter: rateLimiter,
		ViewHandler: viewHandler,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Stop pending fetches before their cache goes away
	if c.Controller != nil {
		c.Controller.Close()
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
