package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.  A nil *AppMetrics is valid and
// records nothing.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Composition Layer
	CompositionsTotal        CounterVec
	CompositionBuildDuration HistogramVec
	ReferenceLookupsTotal    CounterVec
	DocumentsWrittenTotal    CounterVec
	DocumentWriteDuration    HistogramVec

	// Infrastructure Layer
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultBuildDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultWriteDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Composition
	m.CompositionsTotal = collector.RegisterCounter("compositions_built_total", "Compositions processed", "status")
	m.CompositionBuildDuration = collector.RegisterHistogram("composition_build_duration_seconds", "Normalisation and enrichment duration", DefaultBuildDurationBuckets)
	m.ReferenceLookupsTotal = collector.RegisterCounter("reference_lookups_total", "Ion lookups against reference tables", "site", "result")
	m.DocumentsWrittenTotal = collector.RegisterCounter("documents_written_total", "Documents persisted", "backend", "status")
	m.DocumentWriteDuration = collector.RegisterHistogram("document_write_duration_seconds", "Document write duration", DefaultWriteDurationBuckets, "backend")

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Helpers

func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := fmt.Sprintf("%d", statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordComposition counts one build; status is "success", "rendered" or
// "failure".
func (m *AppMetrics) RecordComposition(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CompositionsTotal.WithLabelValues(status).Inc()
	m.CompositionBuildDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *AppMetrics) RecordReferenceLookups(site string, matched, unmatched int) {
	if m == nil {
		return
	}
	m.ReferenceLookupsTotal.WithLabelValues(site, "matched").Add(float64(matched))
	m.ReferenceLookupsTotal.WithLabelValues(site, "unmatched").Add(float64(unmatched))
}

func (m *AppMetrics) RecordDocumentWrite(backend string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.DocumentsWrittenTotal.WithLabelValues(backend, status).Inc()
	m.DocumentWriteDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// CacheHit and CacheMiss let AppMetrics observe the reference table cache.
func (m *AppMetrics) CacheHit(site string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues("reference_table_" + site).Inc()
}

func (m *AppMetrics) CacheMiss(site string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues("reference_table_" + site).Inc()
}

func (m *AppMetrics) SetHealth(component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func (m *AppMetrics) RecordError(component, errorCode string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}
