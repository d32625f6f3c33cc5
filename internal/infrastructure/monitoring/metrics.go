package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Bridge metrics
	BridgeCalls    *prometheus.CounterVec
	BridgeDuration *prometheus.HistogramVec
	BridgeErrors   *prometheus.CounterVec

	// Event metrics
	SubscriptionsActive prometheus.Gauge
	EventsDelivered     *prometheus.CounterVec
	EventsDropped       *prometheus.CounterVec

	// Dev host HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Host metrics
	WindowsOpen prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON status output
type Snapshot struct {
	BridgeCalls         int64   `json:"bridge_calls"`
	BridgeErrors        int64   `json:"bridge_errors"`
	EventsDelivered     int64   `json:"events_delivered"`
	EventsDropped       int64   `json:"events_dropped"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	ActiveConnections   int64   `json:"active_connections"`
	OpenWindows         int64   `json:"open_windows"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// NewMetrics registers all collectors with reg.
// Pass prometheus.NewRegistry() in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		BridgeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_bridge_calls_total",
				Help: "Total number of host bridge invocations",
			},
			[]string{"command", "status"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostwin_bridge_duration_seconds",
				Help:    "Host bridge invocation latency in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"command"},
		),
		BridgeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_bridge_errors_total",
				Help: "Total number of failed host bridge invocations",
			},
			[]string{"command", "kind"},
		),

		SubscriptionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwin_subscriptions_active",
				Help: "Number of live event subscriptions",
			},
		),
		EventsDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_events_delivered_total",
				Help: "Total number of events delivered to handlers",
			},
			[]string{"event"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_events_dropped_total",
				Help: "Total number of events dropped before reaching a handler",
			},
			[]string{"event", "reason"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_devhost_requests_total",
				Help: "Total number of dev host HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostwin_devhost_request_duration_seconds",
				Help:    "Dev host HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwin_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostwin_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwin_windows_open",
				Help: "Number of windows open on the host",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostwin_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// RunUptime updates the uptime gauge every second until done is closed.
func (m *Metrics) RunUptime(done <-chan struct{}) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		}
	}
}

// RecordBridgeCall records one bridge invocation
func (m *Metrics) RecordBridgeCall(command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BridgeCalls.WithLabelValues(command, status).Inc()
	m.BridgeDuration.WithLabelValues(command).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.BridgeCalls++
	m.mu.Unlock()
}

// RecordBridgeError records a failed bridge invocation by error kind
func (m *Metrics) RecordBridgeError(command, kind string) {
	if m == nil {
		return
	}
	m.BridgeErrors.WithLabelValues(command, kind).Inc()

	m.mu.Lock()
	m.snapshot.BridgeErrors++
	m.mu.Unlock()
}

// RecordEventDelivered records a payload handed to a subscriber
func (m *Metrics) RecordEventDelivered(event string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(event).Inc()

	m.mu.Lock()
	m.snapshot.EventsDelivered++
	m.mu.Unlock()
}

// RecordEventDropped records a payload that never reached a subscriber
func (m *Metrics) RecordEventDropped(event, reason string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(event, reason).Inc()

	m.mu.Lock()
	m.snapshot.EventsDropped++
	m.mu.Unlock()
}

// IncSubscriptions increments live subscriptions
func (m *Metrics) IncSubscriptions() {
	if m == nil {
		return
	}
	m.SubscriptionsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSubscriptions++
	m.mu.Unlock()
}

// DecSubscriptions decrements live subscriptions
func (m *Metrics) DecSubscriptions() {
	if m == nil {
		return
	}
	m.SubscriptionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSubscriptions--
	m.mu.Unlock()
}

// RecordHTTPRequest records a dev host HTTP request. A negative duration
// counts the request without observing latency.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	if duration >= 0 {
		m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	}
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// SetWindowsOpen sets the number of open host windows
func (m *Metrics) SetWindowsOpen(count int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenWindows = int64(count)
	m.mu.Unlock()
}

// GetSnapshot returns a copy of the current counters
func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
