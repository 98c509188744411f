// Package http assembles the SynthonScope REST API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/handlers"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/middleware"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	ReactionHandler *handlers.ReactionHandler
	MoleculeHandler *handlers.MoleculeHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	Logging     middleware.LoggingConfig
	CORSOrigins []string
	RateLimit   middleware.RateLimitConfig

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// NewRouter builds the route tree.  Nil handlers leave their routes
// unmounted.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RateLimit(cfg.RateLimit))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Recover(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins...)))
	}

	r.NotFound(envelopeStatus(http.StatusNotFound, errors.ErrCodeNotFound))
	r.MethodNotAllowed(envelopeStatus(http.StatusMethodNotAllowed, errors.ErrCodeBadRequest))

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.ReactionHandler != nil {
			cfg.ReactionHandler.RegisterRoutes(api)
		}
		if cfg.MoleculeHandler != nil {
			cfg.MoleculeHandler.RegisterRoutes(api)
		}
	})

	return r
}

func envelopeStatus(status int, code errors.ErrorCode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := common.NewErrorResponse(string(code), http.StatusText(status))
		resp.RequestID = middleware.GetRequestID(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = jsonEncode(w, resp)
	}
}

//Personal.AI order the ending
