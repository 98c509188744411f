package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// RateLimitConfig bounds the request rate of each client.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate.  Zero or less disables the
	// limiter.
	RequestsPerSecond float64
	// BurstSize defaults to the ceiling of RequestsPerSecond.
	BurstSize int
	// KeyFunc defaults to the client IP.
	KeyFunc func(r *http.Request) string
	// SkipPaths bypass the limiter.
	SkipPaths []string
	// IdleTTL evicts limiters unused for that long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig leaves the probes and the metrics endpoint
// unlimited.
func DefaultRateLimitConfig(rps float64, burst int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: rps,
		BurstSize:         burst,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		IdleTTL:           10 * time.Minute,
	}
}

// ClientIPKey keys on the remote host.  chi's RealIP runs earlier in the
// chain, so RemoteAddr already reflects proxy headers.
func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter holds one token bucket per key.
type KeyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clients map[string]*clientLimiter
	now     func() time.Time
}

// NewKeyedLimiter creates a limiter allowing rps per key with the given
// burst.
func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if burst <= 0 {
		burst = int(math.Ceil(rps))
		if burst < 1 {
			burst = 1
		}
	}
	return &KeyedLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Reserve consumes a token for key.  It reports whether the request may
// proceed, the tokens left, and how long a rejected caller should wait.
func (l *KeyedLimiter) Reserve(key string) (bool, int, time.Duration) {
	now := l.now()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.evictLocked(now)
	l.mu.Unlock()

	if c.limiter.AllowN(now, 1) {
		return true, int(c.limiter.TokensAt(now)), 0
	}
	r := c.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, 0, wait
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *KeyedLimiter) evictLocked(now time.Time) {
	if l.idleTTL <= 0 {
		return
	}
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, k)
		}
	}
}

// RateLimit rejects requests over the configured rate with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := NewKeyedLimiter(cfg.RequestsPerSecond, cfg.BurstSize, cfg.IdleTTL)
	return rateLimitWith(limiter, cfg)
}

func rateLimitWith(limiter *KeyedLimiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, wait := limiter.Reserve(keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			resp := common.NewErrorResponse(string(errors.ErrCodeRateLimited), errors.DefaultMessageForCode(errors.ErrCodeRateLimited))
			resp.RequestID = GetRequestID(r.Context())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(resp)
		})
	}
}

//Personal.AI order the ending
