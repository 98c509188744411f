package redis

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// BreakerConfig controls when the cache breaker opens.
type BreakerConfig struct {
	// Failures is the number of consecutive errors that open the breaker.
	Failures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// BreakerCache guards a Cache with a circuit breaker so a failing Redis costs
// one fast error instead of a network timeout per request.  Misses are not
// failures.
type BreakerCache struct {
	inner  Cache
	cb     *gobreaker.CircuitBreaker
	logger logging.Logger
}

func NewBreakerCache(inner Cache, cfg BreakerConfig, log logging.Logger) *BreakerCache {
	if cfg.Failures == 0 {
		cfg.Failures = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger := logging.OrNop(log).Named("cache.breaker")

	settings := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFound(err) || errors.IsCode(err, errors.ErrCodeSerialization)
		},
	}
	return &BreakerCache{inner: inner, cb: gobreaker.NewCircuitBreaker(settings), logger: logger}
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *BreakerCache) State() string { return b.cb.State().String() }

func (b *BreakerCache) execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return ErrCacheUnavailable.WithCause(err)
	}
	return err
}

func (b *BreakerCache) Get(ctx context.Context, key string, dest interface{}) error {
	return b.execute(func() error { return b.inner.Get(ctx, key, dest) })
}

func (b *BreakerCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return b.execute(func() error { return b.inner.Set(ctx, key, value, ttl) })
}

func (b *BreakerCache) Delete(ctx context.Context, keys ...string) error {
	return b.execute(func() error { return b.inner.Delete(ctx, keys...) })
}

func (b *BreakerCache) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := b.execute(func() error {
		var err error
		ok, err = b.inner.Exists(ctx, key)
		return err
	})
	return ok, err
}

// GetOrSet falls back to loader when the breaker is open.
func (b *BreakerCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := b.execute(func() error { return b.inner.GetOrSet(ctx, key, dest, ttl, loader) })
	if err == nil || !errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
		return err
	}
	v, lerr := loader(ctx)
	if lerr != nil {
		return lerr
	}
	if v == nil {
		return ErrCacheMiss
	}
	data, merr := jsonSerializer{}.Marshal(v)
	if merr != nil {
		return ErrSerializationFailed.WithCause(merr)
	}
	return jsonSerializer{}.Unmarshal(data, dest)
}

func (b *BreakerCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := b.execute(func() error {
		var err error
		n, err = b.inner.DeleteByPrefix(ctx, prefix)
		return err
	})
	return n, err
}

// Ping bypasses the breaker so readiness reflects Redis itself.
func (b *BreakerCache) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

var _ Cache = (*BreakerCache)(nil)

//Personal.AI order the ending
