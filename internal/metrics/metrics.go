package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for admin-state.
type Metrics struct {
	registry               *prometheus.Registry
	dispatchesTotal        *prometheus.CounterVec
	rejectionsTotal        *prometheus.CounterVec
	persistDurationSeconds prometheus.Histogram
	persistErrorsTotal     *prometheus.CounterVec
	lastPersistGauge       prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		dispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_state_dispatches_total",
			Help: "Total dispatched actions by domain and outcome status.",
		}, []string{"domain", "status"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_state_rejections_total",
			Help: "Total rejected actions by domain and reason.",
		}, []string{"domain", "reason"}),
		persistDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "admin_state_persist_duration_seconds",
			Help:    "Duration of state writes to the durable medium in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		persistErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_state_persist_errors_total",
			Help: "Total failed state writes by domain.",
		}, []string{"domain"}),
		lastPersistGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_state_last_persist_timestamp",
			Help: "Unix timestamp of the last successful state write.",
		}),
	}

	registry.MustRegister(
		m.dispatchesTotal,
		m.rejectionsTotal,
		m.persistDurationSeconds,
		m.persistErrorsTotal,
		m.lastPersistGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncDispatches counts one dispatch for the given domain/status.
func (m *Metrics) IncDispatches(domain string, status string) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(domain, status).Inc()
}

// IncRejections counts one rejection for the given domain/reason.
func (m *Metrics) IncRejections(domain string, reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(domain, reason).Inc()
}

// ObservePersistDuration records the duration of a completed write.
func (m *Metrics) ObservePersistDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.persistDurationSeconds.Observe(duration.Seconds())
}

// IncPersistErrors increments the failed write counter for a domain.
func (m *Metrics) IncPersistErrors(domain string) {
	if m == nil {
		return
	}
	m.persistErrorsTotal.WithLabelValues(domain).Inc()
}

// SetLastPersistTimestamp sets the last successful write time.
func (m *Metrics) SetLastPersistTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastPersistGauge.Set(float64(t.Unix()))
}
