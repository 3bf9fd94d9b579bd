package inventory

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Retrier reruns a lock-then-transaction unit that lost a race for a lock or
// was aborted by the database. Any other error ends the loop at once.
type Retrier struct {
	cfg EngineConfig
}

// NewRetrier creates a Retrier with normalized settings
func NewRetrier(cfg EngineConfig) *Retrier {
	return &Retrier{cfg: normalizeConfig(cfg)}
}

// Do runs op until it succeeds, fails permanently or the attempts run out.
// It returns the number of attempts made and op's last error.
func (r *Retrier) Do(ctx context.Context, log *zap.Logger, op func(ctx context.Context) error) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if log != nil {
			log.Warn("Stock write contended, retrying",
				zap.Int("attempt", attempts),
				zap.Error(err))
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(r.newBackOff(), uint64(r.cfg.MaxRetries)), ctx))
	return attempts, err
}

func (r *Retrier) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = 0
	return b
}

// IsRetryable reports whether another attempt may succeed: the lock could not
// be taken in time or the database aborted the transaction on contention.
func IsRetryable(err error) bool {
	return errors.Is(err, shared.ErrLockTimeout) || errors.Is(err, shared.ErrConcurrencyConflict)
}

func normalizeConfig(cfg EngineConfig) EngineConfig {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultEngineConfig().InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}
