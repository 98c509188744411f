package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeFailure(w http.ResponseWriter, status int, code, msg string) {
	resp := common.NewErrorResponse(code, msg)
	resp.RequestID = "srv-1"
	writeEnvelope(w, status, resp)
}

type testLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) log(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, "synscope-go-sdk/"+Version, c.userAgent)
	assert.Empty(t, c.apiKey)
	assert.Same(t, c.Reactions(), c.Reactions())
	assert.Same(t, c.Molecules(), c.Molecules())
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "no-scheme", "http://bad host:%%"} {
		_, err := NewClient(raw)
		require.Error(t, err, raw)
		assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err), raw)
	}
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func TestDo_SendsHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(map[string]string{"ok": "1"}))
	}, WithAPIKey("secret"), WithUserAgent("lab-tool/2"))

	out, err := call[map[string]string](context.Background(), c, http.MethodPost, "echo", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, "1", out["ok"])
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "lab-tool/2", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestDo_RetriesServerErrorsWithStableRequestID(t *testing.T) {
	var calls int32
	ids := make(chan string, 3)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-ID")
		if atomic.AddInt32(&calls, 1) < 3 {
			writeFailure(w, http.StatusInternalServerError, "COMMON_001", "internal server error")
			return
		}
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse("done"))
	})

	out, err := call[string](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	first := <-ids
	assert.Equal(t, first, <-ids)
	assert.Equal(t, first, <-ids)
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		resp := common.NewErrorResponse("CHEM_001", "failed to parse chemical notation")
		resp.Error.Detail = "C1CC"
		resp.RequestID = "srv-7"
		writeEnvelope(w, http.StatusBadRequest, resp)
	})

	_, err := call[string](context.Background(), c, http.MethodPost, "/x", struct{}{})
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, errors.ErrCodeParseFailure, apiErr.ErrorCode())
	assert.Equal(t, "C1CC", apiErr.Detail)
	assert.Equal(t, "srv-7", apiErr.RequestID)
	assert.True(t, apiErr.IsClientError())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, apiErr.Error(), "CHEM_001 (HTTP 400)")
}

func TestDo_RateLimitHonoursRetryAfter(t *testing.T) {
	var calls int32
	log := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeFailure(w, http.StatusTooManyRequests, "COMMON_017", "rate limit exceeded")
			return
		}
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(1))
	}, WithLogger(log))

	out, err := call[int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Contains(t, log.msgs, "rate limited on GET /x")
}

func TestDo_RateLimitWithoutRetryAfterFailsFast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusTooManyRequests, "COMMON_017", "rate limit exceeded")
	})

	_, err := call[int](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.False(t, apiErr.IsClientError())
}

func TestDo_ExhaustedRetriesReturnLastAPIError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, WithRetryMax(2))

	_, err := call[int](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, string(errors.ErrCodeInternal), apiErr.Code)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := call[int](ctx, c, http.MethodGet, "/x", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		writeEnvelope(w, http.StatusOK, Liveness{Status: "alive", Version: "1.2.3", Uptime: "1s"})
	})

	live, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, "1.2.3", live.Version)
}

func TestCalculateBackoff_Capped(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}
	b1 := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, b1, 100*time.Millisecond)
	assert.Less(t, b1, 125*time.Millisecond)

	b5 := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, b5, 300*time.Millisecond)
	assert.Less(t, b5, 375*time.Millisecond)
}

//Personal.AI order the ending
