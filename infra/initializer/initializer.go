package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/topup/infra"
	infra_cache "github.com/amirasaad/topup/infra/cache"
	"github.com/amirasaad/topup/infra/provider/email"
	"github.com/amirasaad/topup/infra/provider/phonepe"
	infra_repository "github.com/amirasaad/topup/infra/repository"
	"github.com/amirasaad/topup/pkg/app"
	"github.com/amirasaad/topup/pkg/cache"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies builds every infrastructure dependency from cfg.
// The returned cleanup closes connections in reverse order of creation.
func InitializeDependencies(ctx context.Context, cfg *config.App) (
	deps *app.Deps,
	cleanup func(),
	err error,
) {
	var closers []io.Closer
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	db, err := infra.NewDBConnection(*cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("❌ [ERROR] Failed to initialize database", "error", err)
		return nil, cleanup, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, sqlDB)
	if cfg.DB.Migrate {
		if err := infra.RunMigrations(db, logger); err != nil {
			return nil, cleanup, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	deps.Uow = infra_repository.NewUoW(db)

	rdb, err := newRedisClient(cfg.Redis)
	if err != nil {
		return nil, cleanup, err
	}
	if rdb != nil {
		closers = append(closers, rdb)
	}

	bus, err := initEventBus(cfg, rdb, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if c, ok := bus.(io.Closer); ok {
		closers = append(closers, c)
	}
	deps.EventBus = bus

	deps.Cache = initCache(ctx, cfg, rdb, logger)
	deps.Gateway = initGateway(cfg.PhonePe, logger)
	deps.Notifier = email.New(cfg.SendGrid, logger)
	deps.Providers = initProviders(cfg.Providers, logger)

	return deps, cleanup, nil
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return redis.NewClient(opts), nil
}

// initCache uses Redis when a client is configured and reachable.
func initCache(ctx context.Context, cfg *config.App, rdb *redis.Client, logger *slog.Logger) cache.LeaderboardCache {
	if rdb != nil {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			logger.Info("Using Redis leaderboard cache")
			return infra_cache.NewRedisCache(rdb, cfg.Redis.KeyPrefix, logger)
		}
		logger.Warn("⚠️ [WARN] Redis unreachable, using in-memory leaderboard cache", "error", err)
	}
	return infra_cache.NewMemoryCache(ctx)
}

// initGateway returns nil when no PhonePe client is configured. Deposits
// and gateway orders are then rejected with ErrGateway.
func initGateway(cfg *config.PhonePe, logger *slog.Logger) payment.Gateway {
	if cfg == nil || cfg.ClientID == "" {
		logger.Warn("⚠️ [WARN] PhonePe is not configured, gateway payments are disabled")
		return nil
	}
	if cfg.CallbackUsername == "" {
		logger.Warn("⚠️ [WARN] PHONEPE_CALLBACK_USERNAME is empty, every webhook will be rejected")
	}
	return phonepe.New(cfg, logger)
}

var errDriverNeedsConfig = errors.New("event bus driver is missing its connection settings")
