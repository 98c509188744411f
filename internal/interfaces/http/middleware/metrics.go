package middleware

import (
	"net/http"
	"time"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/prometheus"
)

// unmatchedRoute labels requests that matched no chi route, keeping the
// route label bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight requests.  The route
// label is the chi pattern, never the raw path.
func Metrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active := m.HTTPActiveRequests.WithLabelValues(r.Method)
			active.Inc()
			defer active.Dec()

			start := time.Now()
			rec := recordStatus(w)
			next.ServeHTTP(rec, r)
			prometheus.RecordHTTPRequest(m, r.Method, routePattern(r), rec.status, time.Since(start))
		})
	}
}

//Personal.AI order the ending
