// Package metrics defines the Prometheus instruments of the service.
// A nil *Metrics is valid and records nothing, so components can run without instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workorders"

// Delivery results recorded per channel send.
const (
	ResultAccepted = "accepted"
	ResultFailed   = "failed"
	ResultNoTarget = "no_channel"
)

type Metrics struct {
	Requests           *prometheus.CounterVec
	LatencyMS          *prometheus.HistogramVec
	Deliveries         *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	Connections        prometheus.Gauge
	Transitions        *prometheus.CounterVec
	RedeliveryOutcomes *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
// Tests pass prometheus.NewRegistry() so repeated construction never collides.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "deliveries_total",
			Help:      "Envelope sends to live channels by group kind and result.",
		}, []string{"group_kind", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "notifications_total",
			Help:      "Notification records created by type.",
		}, []string{"type"}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Currently registered websocket connections.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Committed order status changes.",
		}, []string{"from", "to"}),
		RedeliveryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redelivery",
			Name:      "outcomes_total",
			Help:      "Results of pending notification redelivery attempts.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.Requests, m.LatencyMS, m.Deliveries, m.Notifications,
		m.Connections, m.Transitions, m.RedeliveryOutcomes,
	)
	return m
}

func (m *Metrics) ObserveRequest(handler, status string, ms float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, status).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(ms)
}

func (m *Metrics) Delivery(groupKind, result string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(groupKind, result).Inc()
}

func (m *Metrics) NotificationCreated(typ string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(typ).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Redelivery(result string) {
	if m == nil {
		return
	}
	m.RedeliveryOutcomes.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
