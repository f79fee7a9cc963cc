// Package prometheus wraps client_golang behind small interfaces so that
// metrics can be swapped for no-ops in tests and when metrics are disabled.
package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
)

// MetricsCollector owns a private registry and hands out labelled vectors.
// Registering the same name twice returns the vector already registered.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig selects the metric namespace and the optional runtime
// collectors.
type CollectorConfig struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	// DefaultBuckets is used by RegisterHistogram when no buckets are given.
	DefaultBuckets []float64
}

var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

type collector struct {
	registry *prometheus.Registry
	cfg      CollectorConfig
	logger   logging.Logger

	mu   sync.Mutex
	vecs map[string]prometheus.Collector
}

// NewMetricsCollector creates a collector backed by its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if len(cfg.DefaultBuckets) == 0 {
		cfg.DefaultBuckets = defaultBuckets
	}

	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(prometheus.NewGoCollector())
	}

	return &collector{
		registry: reg,
		cfg:      cfg,
		logger:   logger.Named("metrics"),
		vecs:     make(map[string]prometheus.Collector),
	}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// register stores vec under name unless something already lives there, in
// which case the existing collector is returned.
func (c *collector) register(name string, vec prometheus.Collector) (prometheus.Collector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.vecs[name]; ok {
		return existing, true
	}
	if err := c.registry.Register(vec); err != nil {
		c.logger.Error("metric registration failed", logging.String("name", name), logging.Err(err))
		return nil, false
	}
	c.vecs[name] = vec
	return vec, true
}

func (c *collector) mismatch(name, kind string) {
	c.logger.Warn("metric already registered with another type",
		logging.String("name", name), logging.String("want", kind))
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	got, ok := c.register(name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.cfg.Namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopCounterVec{}
	}
	vec, ok := got.(*prometheus.CounterVec)
	if !ok {
		c.mismatch(name, "counter")
		return noopCounterVec{}
	}
	return counterVec{vec}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	got, ok := c.register(name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.cfg.Namespace, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopGaugeVec{}
	}
	vec, ok := got.(*prometheus.GaugeVec)
	if !ok {
		c.mismatch(name, "gauge")
		return noopGaugeVec{}
	}
	return gaugeVec{vec}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if len(buckets) == 0 {
		buckets = c.cfg.DefaultBuckets
	}
	got, ok := c.register(name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.cfg.Namespace, Name: name, Help: help, Buckets: buckets,
	}, labels))
	if !ok {
		return noopHistogramVec{}
	}
	vec, ok := got.(*prometheus.HistogramVec)
	if !ok {
		c.mismatch(name, "histogram")
		return noopHistogramVec{}
	}
	return histogramVec{vec}
}

type counterVec struct{ *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.CounterVec.WithLabelValues(lvs...) }

type gaugeVec struct{ *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.GaugeVec.WithLabelValues(lvs...) }

type histogramVec struct{ *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

type (
	noopCounterVec   struct{}
	noopGaugeVec     struct{}
	noopHistogramVec struct{}
)

func (noopCounterVec) WithLabelValues(...string) Counter     { return noopMetric{} }
func (noopGaugeVec) WithLabelValues(...string) Gauge         { return noopMetric{} }
func (noopHistogramVec) WithLabelValues(...string) Histogram { return noopMetric{} }

type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Dec()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Set(float64)     {}
func (noopMetric) Observe(float64) {}
