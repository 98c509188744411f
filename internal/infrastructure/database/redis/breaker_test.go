package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/SynthonScope/pkg/errors"
)

// flakyCache fails every call with err until err is cleared.
type flakyCache struct {
	err   error
	calls int
}

func (f *flakyCache) Get(context.Context, string, interface{}) error { f.calls++; return f.err }
func (f *flakyCache) Set(context.Context, string, interface{}, time.Duration) error {
	f.calls++
	return f.err
}
func (f *flakyCache) Delete(context.Context, ...string) error { f.calls++; return f.err }
func (f *flakyCache) Exists(context.Context, string) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}
func (f *flakyCache) GetOrSet(ctx context.Context, _ string, _ interface{}, _ time.Duration, _ func(context.Context) (interface{}, error)) error {
	f.calls++
	return f.err
}
func (f *flakyCache) DeleteByPrefix(context.Context, string) (int64, error) {
	f.calls++
	return 0, f.err
}
func (f *flakyCache) Ping(context.Context) error { return f.err }

func TestBreakerCache_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyCache{err: pkgerrors.New(pkgerrors.ErrCodeCacheError, "i/o timeout")}
	b := NewBreakerCache(inner, BreakerConfig{Failures: 3, Timeout: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := b.Set(ctx, "k", 1, time.Minute)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	}
	assert.Equal(t, "open", b.State())

	var dest int
	err := b.Get(ctx, "k", &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the cache")
}

func TestBreakerCache_MissesDoNotTrip(t *testing.T) {
	inner := &flakyCache{err: ErrCacheMiss}
	b := NewBreakerCache(inner, BreakerConfig{Failures: 2}, nil)

	var dest int
	for i := 0; i < 5; i++ {
		err := b.Get(context.Background(), "k", &dest)
		assert.True(t, pkgerrors.IsNotFound(err))
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakerCache_HalfOpenRecovers(t *testing.T) {
	inner := &flakyCache{err: pkgerrors.New(pkgerrors.ErrCodeCacheError, "down")}
	b := NewBreakerCache(inner, BreakerConfig{Failures: 1, Timeout: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	_ = b.Delete(ctx, "k")
	require.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)
	inner.err = nil
	assert.NoError(t, b.Delete(ctx, "k"))
	assert.Equal(t, "closed", b.State())
}

func TestBreakerCache_GetOrSetFallsBackToLoader(t *testing.T) {
	inner := &flakyCache{err: pkgerrors.New(pkgerrors.ErrCodeCacheError, "down")}
	b := NewBreakerCache(inner, BreakerConfig{Failures: 1, Timeout: time.Minute}, nil)
	ctx := context.Background()
	_, _ = b.Exists(ctx, "k")
	require.Equal(t, "open", b.State())

	var dest cachedSummary
	err := b.GetOrSet(ctx, "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return cachedSummary{Reaction: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", dest.Reaction)

	err = b.GetOrSet(ctx, "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.Equal(t, ErrCacheMiss, err)
}

func TestBreakerCache_PingBypassesBreaker(t *testing.T) {
	inner := &flakyCache{err: pkgerrors.New(pkgerrors.ErrCodeCacheError, "down")}
	b := NewBreakerCache(inner, BreakerConfig{Failures: 1}, nil)
	_, _ = b.DeleteByPrefix(context.Background(), "x")
	require.Equal(t, "open", b.State())

	inner.err = nil
	assert.NoError(t, b.Ping(context.Background()))
}

//Personal.AI order the ending
