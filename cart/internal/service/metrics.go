package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	intents   *prometheus.CounterVec
	pending   prometheus.Gauge
	lines     prometheus.Gauge
	published prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		intents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopeasy",
			Subsystem: "cart",
			Name:      "intents_total",
			Help:      "Cart intents dispatched by type.",
		}, []string{"type"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "shopeasy",
			Subsystem: "cart",
			Name:      "pending_fetches",
			Help:      "Product fetches started and not yet completed.",
		}),
		lines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "shopeasy",
			Subsystem: "cart",
			Name:      "lines",
			Help:      "Distinct products in the cart.",
		}),
		published: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shopeasy",
			Subsystem: "cart",
			Name:      "views_published_total",
			Help:      "Cart views derived and handed to subscribers.",
		}),
	}
}

func (m *Metrics) intent(kind string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(kind).Inc()
}

func (m *Metrics) gauges(lines, pending int) {
	if m == nil {
		return
	}
	m.lines.Set(float64(lines))
	m.pending.Set(float64(pending))
}

func (m *Metrics) derived(lines, pending int) {
	if m == nil {
		return
	}
	m.gauges(lines, pending)
	m.published.Inc()
}
