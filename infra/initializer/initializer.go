// Package initializer builds the process-wide dependencies from
// configuration: logger, store, event bus, publisher and idempotency guard.
package initializer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amirasaad/ledgercore/infra"
	infra_repository "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencySQL   = "sql"
	idempotencyRedis = "redis"
)

// InitializeDependencies wires every dependency the app needs. The returned
// cleanup releases the bus, redis and database handles.
func InitializeDependencies(cfg *config.App) (deps config.Deps, cleanup func(), err error) {
	var closers []func() error
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	logger := setupLogger(cfg.Log)
	deps.Logger = logger
	deps.Config = cfg
	deps.CurrencyRegistry = currency.NewRegistry()

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return deps, cleanup, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}
	deps.Uow = infra_repository.NewUoW(db,
		infra_repository.WithRetryPolicy(storeRetryPolicy(cfg.StoreRetry)),
		infra_repository.WithLogger(logger),
	)

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return deps, cleanup, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	if c, ok := bus.(io.Closer); ok {
		closers = append(closers, c.Close)
	}
	deps.EventBus = bus
	deps.Publisher = publisher.New(bus, logger, breakerConfig(cfg.Breaker))

	store, closeStore, err := initIdempotencyStore(cfg, deps.Uow, logger)
	if err != nil {
		return deps, cleanup, fmt.Errorf("failed to initialize idempotency store: %w", err)
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}
	var guardOpts []idempotency.Option
	if cfg.Idempotency != nil && cfg.Idempotency.TTL > 0 {
		guardOpts = append(guardOpts, idempotency.WithTTL(cfg.Idempotency.TTL))
	}
	deps.Idempotency = idempotency.New(store, logger, guardOpts...)

	logger.Info("🚀 dependencies initialized",
		"env", cfg.Env,
		"event_bus", fmt.Sprintf("%T", bus),
		"idempotency", fmt.Sprintf("%T", store),
	)
	return deps, cleanup, nil
}

func initIdempotencyStore(
	cfg *config.App,
	uow repository.UnitOfWork,
	logger *slog.Logger,
) (idempotency.Store, func() error, error) {
	backend := idempotencySQL
	prefix := ""
	if cfg.Idempotency != nil {
		backend = strings.ToLower(strings.TrimSpace(cfg.Idempotency.Backend))
		prefix = cfg.Idempotency.KeyPrefix
	}

	switch backend {
	case "", idempotencySQL:
		return idempotency.NewSQLStore(uow), nil, nil
	case idempotencyRedis:
		client, err := newRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis idempotency store: %w", err)
		}
		logger.Info("🔑 idempotency records kept in redis", "key_prefix", prefix)
		return idempotency.NewRedisStore(client, prefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported idempotency backend %q", backend)
	}
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is not set")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}
	return redis.NewClient(opt), nil
}

func storeRetryPolicy(cfg *config.StoreRetry) infra_repository.RetryPolicy {
	policy := infra_repository.DefaultRetryPolicy()
	if cfg == nil {
		return policy
	}
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		policy.MaxDelay = cfg.MaxDelay
	}
	return policy
}

func breakerConfig(cfg *config.Breaker) publisher.BreakerConfig {
	out := publisher.DefaultBreakerConfig()
	if cfg == nil {
		return out
	}
	if cfg.ConsecutiveFailures > 0 {
		out.ConsecutiveFailures = cfg.ConsecutiveFailures
	}
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout
	}
	if cfg.MaxRequests > 0 {
		out.MaxRequests = cfg.MaxRequests
	}
	return out
}
