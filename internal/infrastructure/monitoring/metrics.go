package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Output channel metrics
	ChannelsActive  prometheus.Gauge
	ChannelsCreated prometheus.Counter
	LinesAppended   *prometheus.CounterVec

	// Command metrics
	CommandsExecuted *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "output_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "output_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		ChannelsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "output_channels_active",
				Help: "Number of registered output channels",
			},
		),
		ChannelsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "output_channels_created_total",
				Help: "Total number of output channels created",
			},
		),
		LinesAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "output_lines_appended_total",
				Help: "Total number of lines appended to output channels",
			},
			[]string{"channel"},
		),

		CommandsExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "output_commands_executed_total",
				Help: "Total number of commands executed",
			},
			[]string{"command", "status"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "output_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "output_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCommand records a command execution
func (m *Metrics) RecordCommand(command, status string) {
	m.CommandsExecuted.WithLabelValues(command, status).Inc()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
