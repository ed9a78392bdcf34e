// Package metrics exposes poller and device-client counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service reports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks         *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	failovers     prometheus.Counter
	fetchFailures prometheus.Counter
	authAttempts  *prometheus.CounterVec
	storeSamples  prometheus.Gauge
	listeners     prometheus.Gauge
	alarmsFired   prometheus.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitwatch_poll_ticks_total",
			Help: "Poll ticks by outcome (history, status, no_data).",
		}, []string{"kind"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitwatch_poll_tick_seconds",
			Help:    "Wall time of a poll tick including network I/O and parsing.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		failovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitwatch_server_failovers_total",
			Help: "Times a request switched to the other configured server.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitwatch_fetch_failures_total",
			Help: "Requests that failed on both servers.",
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitwatch_auth_attempts_total",
			Help: "Device login attempts by result (ok, rejected, error).",
		}, []string{"result"}),
		storeSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pitwatch_store_samples",
			Help: "Samples currently held in memory.",
		}),
		listeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pitwatch_listeners",
			Help: "Registered snapshot listeners.",
		}),
		alarmsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitwatch_alarms_triggered_total",
			Help: "Background alarm checks that found a triggered alarm.",
		}),
	}

	m.registry.MustRegister(
		m.ticks, m.tickDuration, m.failovers, m.fetchFailures,
		m.authAttempts, m.storeSamples, m.listeners, m.alarmsFired,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTick(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(kind).Inc()
	m.tickDuration.Observe(seconds)
}

func (m *Metrics) Failover() {
	if m == nil {
		return
	}
	m.failovers.Inc()
}

func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) AuthAttempt(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SetStoreSamples(n int) {
	if m == nil {
		return
	}
	m.storeSamples.Set(float64(n))
}

func (m *Metrics) SetListeners(n int) {
	if m == nil {
		return
	}
	m.listeners.Set(float64(n))
}

func (m *Metrics) AlarmTriggered() {
	if m == nil {
		return
	}
	m.alarmsFired.Inc()
}
