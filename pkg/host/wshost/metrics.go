package wshost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's Prometheus collectors. A nil *metrics records
// nothing.
type metrics struct {
	activeConns prometheus.Gauge
	messages    *prometheus.CounterVec
	ops         *prometheus.CounterVec
	wsErrors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)

	return &metrics{
		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "routestate",
			Subsystem: "wshost",
			Name:      "active_connections",
			Help:      "Number of connected thin clients",
		}),

		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routestate",
			Subsystem: "wshost",
			Name:      "messages_total",
			Help:      "Total number of client messages by type",
		}, []string{"type"}),

		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routestate",
			Subsystem: "wshost",
			Name:      "ops_sent_total",
			Help:      "Total number of ops sent to clients",
		}, []string{"op"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routestate",
			Subsystem: "wshost",
			Name:      "errors_total",
			Help:      "Total number of connection errors by kind",
		}, []string{"kind"}),
	}
}

func (m *metrics) connected(delta float64) {
	if m == nil {
		return
	}
	m.activeConns.Add(delta)
}

func (m *metrics) message(typ string) {
	if m == nil {
		return
	}
	switch typ {
	case MsgHello, MsgClick, MsgPopState, MsgNodes:
	default:
		typ = "unknown"
	}
	m.messages.WithLabelValues(typ).Inc()
}

func (m *metrics) op(name string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(name).Inc()
}

func (m *metrics) failure(kind string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(kind).Inc()
}
