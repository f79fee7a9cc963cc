package prometheus

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.CompositionsTotal)
	assert.NotNil(t, m.ReferenceLookupsTotal)
	assert.NotNil(t, m.DocumentWriteDuration)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordComposition(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordComposition("success", 3*time.Millisecond)
	m.RecordComposition("success", 4*time.Millisecond)
	m.RecordComposition("CMP_001", time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_compositions_built_total{status="success"} 2`)
	assert.Contains(t, output, `test_compositions_built_total{status="CMP_001"} 1`)
	assert.Contains(t, output, "test_composition_build_duration_seconds_count 3")
}

func TestRecordReferenceLookups(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordReferenceLookups("A", 3, 1)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_reference_lookups_total{result="matched",site="A"} 3`)
	assert.Contains(t, output, `test_reference_lookups_total{result="unmatched",site="A"} 1`)
}

func TestRecordDocumentWrite(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordDocumentWrite("filesystem", time.Millisecond, nil)
	m.RecordDocumentWrite("minio", time.Millisecond, fmt.Errorf("down"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_documents_written_total{backend="filesystem",status="success"} 1`)
	assert.Contains(t, output, `test_documents_written_total{backend="minio",status="failure"} 1`)
}

func TestCacheObserver(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.CacheHit("A")
	m.CacheHit("A")
	m.CacheMiss("B")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_cache_hits_total{cache="reference_table_A"} 2`)
	assert.Contains(t, output, `test_cache_misses_total{cache="reference_table_B"} 1`)
}

func TestRecordHTTPRequestAndHealth(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordHTTPRequest("POST", "/api/v1/compositions", 201, 10*time.Millisecond)
	m.SetHealth("reference", true)
	m.SetHealth("redis", false)
	m.RecordError("http", "CMP_001")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_http_requests_total{method="POST",path="/api/v1/compositions",status_code="201"} 1`)
	assert.Contains(t, output, `test_health_check_status{component="reference"} 1`)
	assert.Contains(t, output, `test_health_check_status{component="redis"} 0`)
	assert.Contains(t, output, `test_errors_total{component="http",error_code="CMP_001"} 1`)
}

func TestNilAppMetricsIsSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.RecordComposition("success", time.Millisecond)
		m.RecordReferenceLookups("A", 1, 0)
		m.RecordDocumentWrite("filesystem", time.Millisecond, nil)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
		m.CacheHit("A")
		m.CacheMiss("A")
		m.SetHealth("x", true)
		m.RecordError("x", "y")
	})
}
