package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	"rest-user-service/cmd/api/infrastructure"
	"rest-user-service/internal/adapter/cache"
	"rest-user-service/internal/adapter/db/postgres"
	ginhandler "rest-user-service/internal/adapter/gin/handler"
	grpcadapter "rest-user-service/internal/adapter/grpc"
	"rest-user-service/internal/adapter/grpc/middleware"
	"rest-user-service/internal/adapter/repository/cached"
	"rest-user-service/internal/config"
	"rest-user-service/internal/usecase/user"
	redisclient "rest-user-service/pkg/redis"
)

// readinessInterval is how often dependencies are re-probed.
const readinessInterval = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is disabled
	UserUC      user.UserUsecase
	RateLimiter *middleware.RateLimiter // nil when Redis is disabled
	GinHandler  *ginhandler.UserHandler
	Health      *health.Server
	Readiness   *grpcadapter.ReadinessReporter
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var (
		userCache   cache.UserCache
		rateLimiter *middleware.RateLimiter
		checks      = []grpcadapter.Check{{
			Name: "database",
			Fn: func(ctx context.Context) error {
				return infrastructure.PingDatabase(ctx, db)
			},
		}}
	)

	if rdb != nil {
		userCache = cache.NewRedisUserCache(rdb.Client, cfg.Redis.CacheTTL, l)
		rateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
		checks = append(checks, grpcadapter.Check{Name: "redis", Fn: rdb.Check})
	}

	dbRepo := postgres.NewUserRepoPG(db, l)
	repo := cached.NewCachedUserRepository(dbRepo, userCache, l)
	userUC := user.New(repo, l)

	hs := health.NewServer()

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		UserUC:      userUC,
		RateLimiter: rateLimiter,
		GinHandler:  ginhandler.NewUserHandler(userUC, l),
		Health:      hs,
		Readiness:   grpcadapter.NewReadinessReporter(hs, readinessInterval, l, checks...),
	}, nil
}

// Close closes all resources held by the container
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
