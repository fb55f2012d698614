// Package metrics exposes Prometheus counters for gateway calls, credential
// flow outcomes and route guard decisions. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradeconsole"

type Metrics struct {
	registry *prometheus.Registry

	gatewayRequests *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	flowOutcomes    *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	hydrations      *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by endpoint and status (timeout, network, or HTTP code).",
		}, []string{"endpoint", "status"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Gateway request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		flowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "submissions_total",
			Help:      "Credential flow submissions by action and outcome.",
		}, []string{"action", "outcome"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions by kind.",
		}, []string{"decision"}),
		hydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "hydrations_total",
			Help:      "Session hydration results.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.gatewayRequests,
		m.gatewayLatency,
		m.flowOutcomes,
		m.guardDecisions,
		m.hydrations,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGateway records one gateway round trip. status is an HTTP code, or
// 0 together with a non-empty reason for transport failures.
func (m *Metrics) ObserveGateway(endpoint string, status int, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := reason
	if label == "" {
		label = strconv.Itoa(status)
	}
	m.gatewayRequests.WithLabelValues(endpoint, label).Inc()
	m.gatewayLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFlow(action, outcome string) {
	if m == nil {
		return
	}
	m.flowOutcomes.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveGuard(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveHydration(result string) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(result).Inc()
}
