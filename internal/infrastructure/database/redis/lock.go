package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

var (
	ErrLockNotAcquired  = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld      = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
	ErrLockExtendFailed = errors.New(errors.ErrCodeConflict, "failed to extend lock")
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Lock is a single-owner mutex held under one Redis key.
type Lock interface {
	TryLock(ctx context.Context) (bool, error)
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	Extend(ctx context.Context, ttl time.Duration) error
	Key() string
}

type LockOption func(*lockConfig)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

type lockConfig struct {
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

// LockFactory hands out locks under a shared key prefix.
type LockFactory struct {
	client *Client
	prefix string
	logger logging.Logger
}

func NewLockFactory(client *Client, prefix string, log logging.Logger) *LockFactory {
	return &LockFactory{client: client, prefix: prefix, logger: logging.OrNop(log).Named("lock")}
}

// NewMutex returns an unheld lock for name.
func (f *LockFactory) NewMutex(name string, opts ...LockOption) Lock {
	cfg := lockConfig{
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &redisMutex{
		client: f.client,
		key:    f.prefix + "lock:" + name,
		value:  uuid.NewString(),
		cfg:    cfg,
		logger: f.logger,
	}
}

type redisMutex struct {
	client *Client
	key    string
	value  string
	cfg    lockConfig
	logger logging.Logger
}

func (m *redisMutex) Key() string { return m.key }

func (m *redisMutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.cfg.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock")
	}
	return ok, nil
}

// Lock retries TryLock until it succeeds, the retry budget runs out, or ctx
// ends.
func (m *redisMutex) Lock(ctx context.Context) error {
	for i := 0; ; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "lock wait interrupted")
			}
			return err
		}
		if ok {
			return nil
		}
		if i >= m.cfg.retryCount {
			return ErrLockNotAcquired.WithDetail(m.key)
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "lock wait interrupted")
		case <-time.After(m.cfg.retryDelay):
		}
	}
}

func (m *redisMutex) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, m.client.Scripter(), []string{m.key}, m.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n == 0 {
		return ErrLockNotHeld.WithDetail(m.key)
	}
	m.logger.Debug("lock released", logging.String("key", m.key))
	return nil
}

func (m *redisMutex) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, m.client.Scripter(), []string{m.key}, m.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	if n == 0 {
		return ErrLockExtendFailed.WithDetail(m.key)
	}
	return nil
}

//Personal.AI order the ending
