package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type ServerMetrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	CartMutations *prometheus.CounterVec
	Checkout      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers collectors on reg. A nil reg gets a private registry.
func NewServerMetrics(reg *prometheus.Registry) *ServerMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Cart mutations by action.",
	}, []string{"action"})
	checkout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "events_total",
		Help:      "Checkout outcomes by stage and result.",
	}, []string{"stage", "result"})

	reg.MustRegister(requests, latency, mutations, checkout)
	return &ServerMetrics{
		Requests:      requests,
		LatencyMS:     latency,
		CartMutations: mutations,
		Checkout:      checkout,
		gatherer:      reg,
	}
}

func (m *ServerMetrics) CartMutation(action string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(action).Inc()
}

func (m *ServerMetrics) CheckoutEvent(stage, result string) {
	if m == nil {
		return
	}
	m.Checkout.WithLabelValues(stage, result).Inc()
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
