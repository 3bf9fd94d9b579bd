package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory creates the configured KeyedLocker
type Factory struct {
	lockConfig  config.LockConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a new factory
func NewFactory(lockCfg config.LockConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		lockConfig:  lockCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateMemoryLocker creates an in-process locker.
// WARNING: it does not coordinate replicas; run a single instance or use redis.
func (f *Factory) CreateMemoryLocker() *MemoryLocker {
	return NewMemoryLocker(f.lockConfig.AcquireTimeout)
}

// CreateRedisLocker connects to Redis and creates a Redis locker
func (f *Factory) CreateRedisLocker() (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLocker(client, f.lockConfig.TTL, f.lockConfig.AcquireTimeout,
		WithKeyPrefix(f.lockConfig.KeyPrefix),
		WithRedisLogger(f.logger),
	), nil
}

// CreateLocker creates the locker named by lock.backend. With the redis
// backend it falls back to memory when Redis is unreachable and fallback is allowed.
func (f *Factory) CreateLocker() (shared.KeyedLocker, error) {
	if f.lockConfig.Backend != config.LockBackendRedis {
		f.logger.Info("using in-memory stock locker")
		return f.CreateMemoryLocker(), nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis stock locker", zap.String("addr", f.redisConfig.Addr()))
		return locker, nil
	}

	if !f.lockConfig.AllowFallback {
		return nil, fmt.Errorf("Redis required for stock locks but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stock locker. "+
		"Replicas will not coordinate stock adjustments.",
		zap.Error(err),
	)
	return f.CreateMemoryLocker(), nil
}
