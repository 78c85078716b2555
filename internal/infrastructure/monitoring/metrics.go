package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Discovery metrics
	Refreshes      *prometheus.CounterVec
	DevicesVisible prometheus.Gauge

	// Connection metrics
	ConnectAttempts *prometheus.CounterVec
	ConnectRetries  prometheus.Counter
	PairAttempts    *prometheus.CounterVec

	// Session metrics
	SessionsRunning prometheus.Gauge

	// Collaborator metrics
	CollaboratorCalls    *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	Devices         int64   `json:"devices"`
	RunningSessions int64   `json:"running_sessions"`
	TotalDuration   float64 `json:"total_duration_seconds"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics creates a collector with its own registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrcpy_gui_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrcpy_gui_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrcpy_gui_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Discovery metrics
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_device_refreshes_total",
				Help: "Device refreshes by outcome (ok, error, skipped)",
			},
			[]string{"outcome"},
		),
		DevicesVisible: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scrcpy_gui_devices_visible",
				Help: "Number of devices in the current snapshot",
			},
		),

		// Connection metrics
		ConnectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_connect_attempts_total",
				Help: "Connect calls issued to the collaborator by outcome",
			},
			[]string{"outcome"},
		),
		ConnectRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_connect_retries_total",
				Help: "Connects that entered the cleanup-and-retry path",
			},
		),
		PairAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_pair_attempts_total",
				Help: "Pairing attempts by outcome",
			},
			[]string{"outcome"},
		),

		// Session metrics
		SessionsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scrcpy_gui_sessions_running",
				Help: "Number of devices with a confirmed running session",
			},
		),

		// Collaborator metrics
		CollaboratorCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_collaborator_calls_total",
				Help: "Total number of collaborator invocations",
			},
			[]string{"operation", "status"},
		),
		CollaboratorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrcpy_gui_collaborator_duration_seconds",
				Help:    "Collaborator invocation duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scrcpy_gui_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrcpy_gui_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "scrcpy_gui_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry backing this collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRefresh records a refresh outcome.
func (m *Metrics) RecordRefresh(outcome string) {
	m.Refreshes.WithLabelValues(outcome).Inc()
}

// SetDevicesVisible sets the snapshot size
func (m *Metrics) SetDevicesVisible(count int) {
	m.DevicesVisible.Set(float64(count))
	m.mu.Lock()
	m.snapshot.Devices = int64(count)
	m.mu.Unlock()
}

// RecordConnect records one collaborator connect call.
func (m *Metrics) RecordConnect(outcome string) {
	m.ConnectAttempts.WithLabelValues(outcome).Inc()
}

// IncConnectRetries increments the retry counter
func (m *Metrics) IncConnectRetries() {
	m.ConnectRetries.Inc()
}

// RecordPair records a pairing outcome.
func (m *Metrics) RecordPair(outcome string) {
	m.PairAttempts.WithLabelValues(outcome).Inc()
}

// SetSessionsRunning sets the number of running sessions
func (m *Metrics) SetSessionsRunning(count int) {
	m.SessionsRunning.Set(float64(count))
	m.mu.Lock()
	m.snapshot.RunningSessions = int64(count)
	m.mu.Unlock()
}

// RecordCollaboratorCall records a collaborator invocation
func (m *Metrics) RecordCollaboratorCall(operation, status string, duration time.Duration) {
	m.CollaboratorCalls.WithLabelValues(operation, status).Inc()
	m.CollaboratorDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
