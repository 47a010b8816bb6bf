// Package metrics exposes the engine's Prometheus instrumentation: step
// throughput, faults broken down by kind, and invocation stack depth.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the VM's Prometheus metric handles.
type Collector struct {
	Steps            prometheus.Counter
	Faults           *prometheus.CounterVec
	InvocationDepth  prometheus.Gauge
}

// NewCollector builds a Collector and registers it on reg. Pass a
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corevm",
			Name:      "steps_total",
			Help:      "Total number of dispatch-loop steps executed.",
		}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corevm",
			Name:      "faults_total",
			Help:      "Total number of FAULT transitions, by error kind.",
		}, []string{"kind"}),
		InvocationDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corevm",
			Name:      "invocation_stack_depth",
			Help:      "Current depth of the invocation stack.",
		}),
	}
	reg.MustRegister(c.Steps, c.Faults, c.InvocationDepth)
	return c
}

// NopCollector returns a Collector registered only with a fresh private
// registry, safe for use by callers who don't want metrics wiring.
func NopCollector() *Collector {
	return NewCollector(prometheus.NewRegistry())
}
