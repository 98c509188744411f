package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SynthonScope/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientFrom(db, logging.NewNopLogger())
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(), WithPrefix("test:"), WithJitter(0))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedSummary struct {
	Reaction string `json:"reaction"`
	Synthons []int  `json:"synthons"`
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := cachedSummary{Reaction: "[CH3:1][OH:2]>>[CH3:1][O-:2]", Synthons: []int{2}}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(raw))

	var dest cachedSummary
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest cachedSummary
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_NullCacheMarker() {
	s.mock.ExpectGet("test:key1").SetVal(nullMarker)

	var dest cachedSummary
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_RedisError() {
	s.mock.ExpectGet("test:key1").SetErr(errors.New("connection reset"))

	var dest cachedSummary
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.Error(err)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	s.False(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest cachedSummary
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_Success() {
	val := cachedSummary{Reaction: "r", Synthons: []int{1}}
	raw, _ := json.Marshal(val)
	s.mock.ExpectSet("test:key1", string(raw), time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "key1", val, time.Minute))
}

func (s *CacheTestSuite) TestSet_NilUsesNullMarker() {
	s.mock.ExpectSet("test:key1", nullMarker, 30*time.Second).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "key1", nil, time.Hour))
}

func (s *CacheTestSuite) TestSet_ZeroTTLUsesDefault() {
	raw, _ := json.Marshal(cachedSummary{Reaction: "r"})
	s.mock.ExpectSet("test:key1", string(raw), time.Hour).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "key1", cachedSummary{Reaction: "r"}, 0))
}

func (s *CacheTestSuite) TestSet_RedisError() {
	raw, _ := json.Marshal(cachedSummary{Reaction: "r"})
	s.mock.ExpectSet("test:key1", string(raw), time.Minute).SetErr(errors.New("OOM"))

	err := s.cache.Set(context.Background(), "key1", cachedSummary{Reaction: "r"}, time.Minute)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_UnserializableValue() {
	err := s.cache.Set(context.Background(), "key1", make(chan int), time.Minute)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)

	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:a").SetVal(1)
	s.mock.ExpectExists("test:b").SetVal(0)

	ok, err := s.cache.Exists(context.Background(), "a")
	s.NoError(err)
	s.True(ok)

	ok, err = s.cache.Exists(context.Background(), "b")
	s.NoError(err)
	s.False(ok)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

// ─────────────────────────────────────────────────────────────────────────────
// Behaviour against an in-memory Redis
// ─────────────────────────────────────────────────────────────────────────────

func newMiniCache(t *testing.T, opts ...CacheOption) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClientFrom(redisClientFor(mr), logging.NewNopLogger())
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCache(client, logging.NewNopLogger(), append([]CacheOption{WithJitter(0)}, opts...)...)
}

func TestCache_RoundTrip_Codecs(t *testing.T) {
	for _, codec := range []string{"json", "msgpack"} {
		t.Run(codec, func(t *testing.T) {
			ser, err := NewSerializer(codec)
			require.NoError(t, err)
			_, cache := newMiniCache(t, WithSerializer(ser))
			ctx := context.Background()

			in := cachedSummary{Reaction: "[CH3:1][OH:2]>>[CH3:1][O-:2]", Synthons: []int{1, 2}}
			require.NoError(t, cache.Set(ctx, "k", in, time.Minute))

			var out cachedSummary
			require.NoError(t, cache.Get(ctx, "k", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestNewSerializer_Unknown(t *testing.T) {
	_, err := NewSerializer("xml")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	ser, err := NewSerializer("")
	require.NoError(t, err)
	assert.IsType(t, jsonSerializer{}, ser)
}

func TestCache_SetAppliesTTL(t *testing.T) {
	mr, cache := newMiniCache(t, WithPrefix("p:"))
	require.NoError(t, cache.Set(context.Background(), "k", cachedSummary{}, 2*time.Minute))

	assert.Equal(t, 2*time.Minute, mr.TTL("p:k"))
	mr.FastForward(3 * time.Minute)
	assert.False(t, mr.Exists("p:k"))
}

func TestCache_JitterStaysInBand(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClientFrom(redisClientFor(mr), logging.NewNopLogger())
	cache := NewRedisCache(client, nil, WithPrefix(""), WithJitter(0.1))

	for i := 0; i < 20; i++ {
		require.NoError(t, cache.Set(context.Background(), "k", 1, 100*time.Second))
		ttl := mr.TTL("k")
		assert.GreaterOrEqual(t, ttl, 90*time.Second)
		assert.LessOrEqual(t, ttl, 110*time.Second)
	}
}

func TestCache_GetOrSet(t *testing.T) {
	_, cache := newMiniCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return cachedSummary{Reaction: "loaded", Synthons: []int{3}}, nil
	}

	var first cachedSummary
	require.NoError(t, cache.GetOrSet(ctx, "k", &first, time.Minute, loader))
	assert.Equal(t, "loaded", first.Reaction)

	var second cachedSummary
	require.NoError(t, cache.GetOrSet(ctx, "k", &second, time.Minute, loader))
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_GetOrSet_CollapsesConcurrentLoads(t *testing.T) {
	_, cache := newMiniCache(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return cachedSummary{Reaction: "once"}, nil
	}

	var wg sync.WaitGroup
	results := make([]cachedSummary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cache.GetOrSet(ctx, "hot", &results[i], time.Minute, loader)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	for _, r := range results {
		assert.Equal(t, "once", r.Reaction)
	}
}

func TestCache_GetOrSet_LoaderError(t *testing.T) {
	mr, cache := newMiniCache(t, WithPrefix("p:"))
	boom := pkgerrors.New(pkgerrors.ErrCodeDatabaseError, "db down")

	var dest cachedSummary
	err := cache.GetOrSet(context.Background(), "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("p:k"))
}

func TestCache_GetOrSet_NilCachesNullMarker(t *testing.T) {
	mr, cache := newMiniCache(t, WithPrefix("p:"), WithNullCacheTTL(5*time.Second))

	var dest cachedSummary
	err := cache.GetOrSet(context.Background(), "k", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.Equal(t, ErrCacheMiss, err)

	v, getErr := mr.Get("p:k")
	require.NoError(t, getErr)
	assert.Equal(t, nullMarker, v)
	assert.Equal(t, 5*time.Second, mr.TTL("p:k"))
}

func TestCache_DeleteByPrefix(t *testing.T) {
	mr, cache := newMiniCache(t, WithPrefix("p:"))
	ctx := context.Background()
	for _, k := range []string{"analysis:1", "analysis:2", "analysis:id:3", "other"} {
		require.NoError(t, cache.Set(ctx, k, 1, time.Minute))
	}

	n, err := cache.DeleteByPrefix(ctx, "analysis:")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, mr.Exists("p:other"))
	assert.False(t, mr.Exists("p:analysis:1"))
}

func TestCache_Ping(t *testing.T) {
	mr, cache := newMiniCache(t)
	assert.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

//Personal.AI order the ending
