package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SynthonScope/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Nil(t, c)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestNewMetricsCollector_RuntimeCollectors(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "rt", EnableGoMetrics: true, EnableProcessMetrics: true}, nil)
	require.NoError(t, err)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("jobs_total", "jobs", "status")
	vec.WithLabelValues("ok").Inc()
	vec.WithLabelValues("ok").Add(2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_jobs_total{status="ok"} 3`)
}

func TestRegisterCounter_Twice_ReturnsSameVector(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "dup", "k").WithLabelValues("a").Inc()
	c.RegisterCounter("dup_total", "dup", "k").WithLabelValues("a").Inc()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_dup_total{k="a"} 2`)
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("clash", "counter first", "k")
	g := c.RegisterGauge("clash", "then gauge", "k")

	assert.IsType(t, noopGaugeVec{}, g)
	assert.NotPanics(t, func() { g.WithLabelValues("x").Set(5) })
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("inflight", "in flight", "method")
	g.WithLabelValues("GET").Inc()
	g.WithLabelValues("GET").Inc()
	g.WithLabelValues("GET").Dec()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_inflight{method="GET"} 1`)
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("latency_seconds", "latency", nil, "op")
	h.WithLabelValues("parse").Observe(0.2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_latency_seconds_bucket{op="parse",le="0.25"} 1`)
	assert.Contains(t, out, `test_unit_latency_seconds_count{op="parse"} 1`)
}

func TestGatherer(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("a_total", "a", "k").WithLabelValues("x").Inc()
	c.RegisterCounter("a_total", "a", "k").WithLabelValues("y").Inc()

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_a_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "timer", nil)

	timer := NewTimer(h.WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	d := timer.ObserveDuration()

	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_timer_seconds_count 1")
	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
