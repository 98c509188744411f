package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/config"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SynthonScope/pkg/errors"
)

func redisClientFor(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestNewClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "redis", client.Name())
	assert.NoError(t, client.Check(context.Background()))
}

func TestNewClient_RequiresAddr(t *testing.T) {
	client, err := NewClient(config.RedisConfig{}, nil)
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	cfg := config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}

	client, err := NewClient(cfg, logging.NewNopLogger())
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestClient_Operations(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	ok, err := client.SetNX(ctx, "foo", "baz", time.Minute).Result()
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := client.Exists(ctx, "foo", "missing").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = client.Get(ctx, "foo").Result()
	assert.Equal(t, redis.Nil, err)
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	ctx := context.Background()
	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.Get(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.SetNX(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Exists(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Scan(ctx, 0, "*", 10).Err(), ErrClientClosed)
}

//Personal.AI order the ending
