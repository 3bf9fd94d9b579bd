package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token, so a
// holder whose TTL lapsed cannot release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var errKeyBusy = errors.New("lock key busy")

// RedisLocker holds keys as Redis entries set with SET NX PX. Entries expire
// after ttl so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithKeyPrefix namespaces the Redis keys
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.keyPrefix = prefix
	}
}

// WithRedisLogger sets the logger used for release failures
func WithRedisLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client redis.UniversalClient, ttl, timeout time.Duration, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:    client,
		keyPrefix: "ledger:lock:",
		ttl:       ttl,
		timeout:   timeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type redisHold struct {
	key   string
	token string
}

// Acquire implements shared.KeyedLocker
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (context.Context, func(), error) {
	pending := pendingKeys(ctx, keys)
	if len(pending) == 0 {
		return ctx, noopRelease, nil
	}

	deadline := time.Now().Add(l.timeout)
	holds := make([]redisHold, 0, len(pending))
	for _, key := range pending {
		token := uuid.NewString()
		if err := l.take(ctx, l.keyPrefix+key, token, time.Until(deadline)); err != nil {
			l.releaseAll(holds)
			if errors.Is(err, errKeyBusy) {
				return ctx, noopRelease, fmt.Errorf("%w: %s", shared.ErrLockTimeout, key)
			}
			return ctx, noopRelease, err
		}
		holds = append(holds, redisHold{key: l.keyPrefix + key, token: token})
	}

	var once sync.Once
	release := func() {
		once.Do(func() { l.releaseAll(holds) })
	}
	return withHeldKeys(ctx, pending), release, nil
}

// take polls SET NX with exponential backoff until it wins the key or wait runs out
func (l *RedisLocker) take(ctx context.Context, key, token string, wait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = wait
	if wait <= 0 {
		b.MaxElapsedTime = time.Nanosecond
	}

	op := func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to acquire lock %s: %w", key, err))
		}
		if !ok {
			return errKeyBusy
		}
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// releaseAll runs on a fresh context: a cancelled request must still give its keys back.
func (l *RedisLocker) releaseAll(holds []redisHold) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(holds) - 1; i >= 0; i-- {
		h := holds[i]
		if err := releaseScript.Run(ctx, l.client, []string{h.key}, h.token).Err(); err != nil {
			l.logger.Warn("failed to release stock lock, it will expire with its ttl",
				zap.String("key", h.key), zap.Error(err))
		}
	}
}

// Close closes the underlying client
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

var _ shared.KeyedLocker = (*RedisLocker)(nil)
