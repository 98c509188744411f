package middleware

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// LoggingConfig tunes RequestLogging.
type LoggingConfig struct {
	SkipPaths []string

	// Successful requests at or above SlowThreshold log at Warn.  Zero
	// disables the check.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig keeps probes and scrapes out of the log.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// statusRecorder remembers the first status written and counts body bytes.
// Nested middleware share one recorder.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	sent    bool
}

func recordStatus(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.sent {
		return
	}
	rec.status, rec.sent = code, true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.WriteHeader(http.StatusOK)
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInternal, "response writer cannot be hijacked")
	}
	return h.Hijack()
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// routePattern is the chi pattern that served r, or unmatchedRoute.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// RequestLogging writes one entry per request on the "http" logger.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger).Named("http")
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := recordStatus(w)
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.RequestURI()),
				logging.String("route", routePattern(r)),
				logging.Int("status", rec.status),
				logging.Duration("duration", elapsed),
				logging.Int64("bytes", rec.written),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String("request_id", GetRequestID(r.Context())),
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			case rec.status >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			case config.SlowThreshold > 0 && elapsed >= config.SlowThreshold:
				logger.Warn("slow request", fields...)
			default:
				logger.Info("request served", fields...)
			}
		})
	}
}

//Personal.AI order the ending
