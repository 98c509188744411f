package prometheus

import (
	"database/sql"
	"strconv"
	"time"
)

// AppMetrics holds every metric the API server and worker export.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Analysis Layer
	AnalysesTotal    CounterVec
	AnalysisDuration HistogramVec
	SynthonsPerRun   HistogramVec
	CacheLookups     CounterVec

	// Worker Layer
	JobsTotal       CounterVec
	JobDuration     HistogramVec
	ConsumerBacklog GaugeVec

	// Infrastructure Layer
	DBPoolOpen   GaugeVec
	DBPoolInUse  GaugeVec
	HealthStatus GaugeVec
	ErrorsTotal  CounterVec

	ServiceInfo GaugeVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultSynthonCountBuckets     = []float64{0, 1, 2, 5, 10, 20, 50, 100, 250}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	// Analysis
	m.AnalysesTotal = collector.RegisterCounter("analyses_total", "Reaction analyses by outcome", "outcome")
	m.AnalysisDuration = collector.RegisterHistogram("analysis_duration_seconds", "Reaction analysis duration", DefaultAnalysisDurationBuckets, "outcome")
	m.SynthonsPerRun = collector.RegisterHistogram("analysis_synthons", "Synthon map numbers found per analysis", DefaultSynthonCountBuckets)
	m.CacheLookups = collector.RegisterCounter("cache_lookups_total", "Analysis cache lookups", "result")

	// Worker
	m.JobsTotal = collector.RegisterCounter("worker_jobs_total", "Analysis jobs consumed", "status")
	m.JobDuration = collector.RegisterHistogram("worker_job_duration_seconds", "Analysis job duration", DefaultAnalysisDurationBuckets, "status")
	m.ConsumerBacklog = collector.RegisterGauge("worker_consumer_lag", "Records behind the high-water mark", "topic")

	// Infrastructure
	m.DBPoolOpen = collector.RegisterGauge("db_pool_open_connections", "Open database connections", "db")
	m.DBPoolInUse = collector.RegisterGauge("db_pool_in_use_connections", "Database connections in use", "db")
	m.HealthStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	m.ServiceInfo = collector.RegisterGauge("service_info", "Constant 1 labelled with the running service", "service", "version")
	return m
}

// ObserveAnalysis records one analysis outcome and its duration.
func (m *AppMetrics) ObserveAnalysis(outcome string, elapsed time.Duration) {
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func (m *AppMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveSynthons records how many synthon map numbers an analysis found.
func (m *AppMetrics) ObserveSynthons(count int) {
	m.SynthonsPerRun.WithLabelValues().Observe(float64(count))
}

// Helpers

func RecordHTTPRequest(m *AppMetrics, method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordJob records a consumed job under its outcome label.
func RecordJob(m *AppMetrics, status string, duration time.Duration) {
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func RecordDBStats(m *AppMetrics, db string, stats sql.DBStats) {
	m.DBPoolOpen.WithLabelValues(db).Set(float64(stats.OpenConnections))
	m.DBPoolInUse.WithLabelValues(db).Set(float64(stats.InUse))
}

func RecordHealth(m *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthStatus.WithLabelValues(component).Set(v)
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
