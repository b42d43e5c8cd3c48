package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricsNamespace = "uptree"
	metricsSubsystem = "api"
)

type metrics struct {
	RequestCount prometheus.Counter
	BuildCount   prometheus.Counter
	UpdateCount  prometheus.Counter
	LeafCount    prometheus.Gauge
}

func newMetrics() metrics {
	return metrics{
		RequestCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_count",
			Help:      "Number of API requests.",
		}),
		BuildCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "build_count",
			Help:      "Number of tree builds.",
		}),
		UpdateCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "update_count",
			Help:      "Number of successful leaf updates.",
		}),
		LeafCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "leaf_count",
			Help:      "Number of leaves in the current tree.",
		}),
	}
}

func (s *Server) newMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		s.metrics.RequestCount,
		s.metrics.BuildCount,
		s.metrics.UpdateCount,
		s.metrics.LeafCount,
	)

	return registry
}

// MetricsRegistry exposes the registry backing the /metrics endpoint.
func (s *Server) MetricsRegistry() *prometheus.Registry {
	return s.registry
}
