package router

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Navigation outcomes recorded in navigations_total.
const (
	outcomeCommitted  = "committed"
	outcomeBootError  = "boot_error"
	outcomeSuperseded = "superseded"
	outcomeNoMatch    = "no_match"
	outcomeInvalid    = "invalid"
	outcomeStopped    = "stopped"
)

// metrics holds the router's Prometheus collectors. A nil *metrics records
// nothing. Routers sharing a registerer share collectors.
type metrics struct {
	navigations   *prometheus.CounterVec
	duration      prometheus.Histogram
	transitioning prometheus.Gauge

	// inFlight is this router's contribution to transitioning. Guarded by
	// the router's navMu.
	inFlight bool
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	return &metrics{
		navigations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routestate",
			Name:      "navigations_total",
			Help:      "Total number of navigations by trigger and outcome",
		}, []string{"source", "outcome"})),

		duration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routestate",
			Name:      "navigation_duration_seconds",
			Help:      "Time from the start of a navigation to its commit",
			Buckets:   prometheus.DefBuckets,
		})),

		transitioning: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "routestate",
			Name:      "transitioning",
			Help:      "Number of routers with a navigation in flight",
		})),
	}
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) navigation(source, outcome string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(source, outcome).Inc()
}

func (m *metrics) observe(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func (m *metrics) setTransitioning(on bool) {
	if m == nil || m.inFlight == on {
		return
	}
	m.inFlight = on
	if on {
		m.transitioning.Inc()
	} else {
		m.transitioning.Dec()
	}
}
