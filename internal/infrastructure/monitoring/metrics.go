// Package monitoring provides Prometheus metrics for the tracker
// service and a gin middleware that records HTTP request metrics.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Each Metrics instance owns
// its registry, so multiple instances can coexist (tests included).
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Recording metrics
	EventsRecorded    *prometheus.CounterVec
	RecordingsStarted prometheus.Counter
	RecordingsSaved   prometheus.Counter

	// Replay metrics
	ReplaysTotal   *prometheus.CounterVec
	ReplayDuration prometheus.Histogram

	// Detection metrics
	AnalysisCycles     *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	SuggestionsEmitted *prometheus.CounterVec
	SuggestionsActive  prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tracker_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		EventsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_events_recorded_total",
				Help: "Total number of input events captured during recordings",
			},
			[]string{"kind"},
		),
		RecordingsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tracker_recordings_started_total",
				Help: "Total number of recording sessions started",
			},
		),
		RecordingsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tracker_recordings_saved_total",
				Help: "Total number of recordings persisted to disk",
			},
		),

		ReplaysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_replays_total",
				Help: "Total number of automation replays",
			},
			[]string{"status"},
		),
		ReplayDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracker_replay_duration_seconds",
				Help:    "Automation replay duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		AnalysisCycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_analysis_cycles_total",
				Help: "Total number of pattern analysis cycles",
			},
			[]string{"status"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracker_analysis_duration_seconds",
				Help:    "Pattern analysis cycle duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		SuggestionsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_suggestions_emitted_total",
				Help: "Total number of suggestions emitted by the detector",
			},
			[]string{"type"},
		),
		SuggestionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_suggestions_active",
				Help: "Number of active (unsettled) suggestions",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	return m
}

// Handler returns an HTTP handler exposing this instance's registry in
// Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEvent records a captured input event.
func (m *Metrics) RecordEvent(kind string) {
	m.EventsRecorded.WithLabelValues(kind).Inc()
}

// RecordReplay records a finished replay attempt.
func (m *Metrics) RecordReplay(status string, duration time.Duration) {
	m.ReplaysTotal.WithLabelValues(status).Inc()
	m.ReplayDuration.Observe(duration.Seconds())
}

// RecordAnalysis records a finished analysis cycle.
func (m *Metrics) RecordAnalysis(status string, duration time.Duration) {
	m.AnalysisCycles.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(duration.Seconds())
}
