package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/prometheus"
)

func newTestMetrics(t *testing.T) (prometheus.MetricsCollector, *prometheus.AppMetrics) {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	return c, prometheus.NewAppMetrics(c)
}

func TestMetrics_RouteLabelIsPattern(t *testing.T) {
	c, m := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/analyses/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyses/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	expected := `
# HELP test_http_requests_total Total HTTP requests
# TYPE test_http_requests_total counter
test_http_requests_total{method="GET",route="/analyses/{id}",status_code="404"} 3
test_http_requests_total{method="GET",route="unmatched",status_code="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected), "test_http_requests_total"))

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_ActiveGaugeReturnsToZero(t *testing.T) {
	c, m := newTestMetrics(t)
	Metrics(m)(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	expected := `
# HELP test_http_active_requests In-flight HTTP requests
# TYPE test_http_active_requests gauge
test_http_active_requests{method="POST"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected), "test_http_active_requests"))
}

func TestMetrics_NilIsPassThrough(t *testing.T) {
	h := statusHandler(http.StatusTeapot)
	w := httptest.NewRecorder()
	Metrics(nil)(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

//Personal.AI order the ending
