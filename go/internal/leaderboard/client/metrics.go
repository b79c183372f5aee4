package client

import (
	"net/http"

	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector defines the interface for collecting session metrics
type MetricsCollector interface {
	RecordInbound(kind string)
	RecordDropped(reason string)
	RecordCommandSent(action string)
	RecordConnectionState(state models.ConnectionState)
	RecordStreamState(state models.StreamState)
	RecordEventLogSize(size int)
}

// Drop reasons reported to RecordDropped
const (
	dropMalformed       = "malformed"
	dropNotConnected    = "not_connected"
	dropUnknownWindow   = "unknown_window"
	dropUnknownCategory = "unknown_category"
)

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordInbound(kind string)                          {}
func (n *NoOpMetricsCollector) RecordDropped(reason string)                        {}
func (n *NoOpMetricsCollector) RecordCommandSent(action string)                    {}
func (n *NoOpMetricsCollector) RecordConnectionState(state models.ConnectionState) {}
func (n *NoOpMetricsCollector) RecordStreamState(state models.StreamState)         {}
func (n *NoOpMetricsCollector) RecordEventLogSize(size int)                        {}

// PrometheusMetrics implements MetricsCollector on its own registry
type PrometheusMetrics struct {
	registry *prometheus.Registry

	inbound      *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	commandsSent *prometheus.CounterVec
	connection   *prometheus.GaugeVec
	streaming    prometheus.Gauge
	eventLogSize prometheus.Gauge
}

// NewPrometheusMetrics creates and registers the session metrics
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "housecup"
	}

	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "inbound_messages_total",
			Help:      "Inbound message fields processed, by kind",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "dropped_messages_total",
			Help:      "Inbound or outbound messages dropped, by reason",
		}, []string{"reason"}),
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "commands_sent_total",
			Help:      "Outbound commands written to the points source, by action",
		}, []string{"action"}),
		connection: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 otherwise",
		}, []string{"state"}),
		streaming: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "streaming",
			Help:      "1 while live streaming is started",
		}),
		eventLogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "event_log_size",
			Help:      "Number of scoring events held in the recent log",
		}),
	}

	m.registry.MustRegister(m.inbound, m.dropped, m.commandsSent, m.connection, m.streaming, m.eventLogSize)
	return m
}

func (m *PrometheusMetrics) RecordInbound(kind string) {
	m.inbound.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *PrometheusMetrics) RecordCommandSent(action string) {
	m.commandsSent.WithLabelValues(action).Inc()
}

func (m *PrometheusMetrics) RecordConnectionState(state models.ConnectionState) {
	for _, s := range []models.ConnectionState{
		models.ConnectionStateDisconnected,
		models.ConnectionStateConnecting,
		models.ConnectionStateConnected,
	} {
		value := 0.0
		if s == state {
			value = 1
		}
		m.connection.WithLabelValues(string(s)).Set(value)
	}
}

func (m *PrometheusMetrics) RecordStreamState(state models.StreamState) {
	if state == models.StreamStateStarted {
		m.streaming.Set(1)
		return
	}
	m.streaming.Set(0)
}

func (m *PrometheusMetrics) RecordEventLogSize(size int) {
	m.eventLogSize.Set(float64(size))
}

// Registry exposes the underlying registry (useful for testing)
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
