// router.go: Prometheus metrics for the router process.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterMetrics contains all Prometheus metrics related to router handshakes.
type RouterMetrics struct {
	SnapshotsReceived prometheus.Counter
	Handshakes        *prometheus.CounterVec
	HandshakeLatency  prometheus.Histogram
	registry          *prometheus.Registry
}

// NewRouterMetrics creates a new instance of RouterMetrics.
func NewRouterMetrics(registry *prometheus.Registry) (*RouterMetrics, error) {
	m := &RouterMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register router metrics: %w", err)
	}
	return m, nil
}

func (m *RouterMetrics) initMetrics() {
	m.SnapshotsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "router_snapshots_received_total",
		Help: "Total number of snapshot payloads received from the hub",
	})
	m.Handshakes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_handshakes_total",
		Help: "Total number of scene-ended handshakes, by result",
	}, []string{"result"})
	m.HandshakeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "router_handshake_latency_seconds",
		Help:    "Time from capture request to fresh snapshot arrival",
		Buckets: prometheus.ExponentialBuckets(0.02, 2, 9),
	})
}

// Collect implements the prometheus.Collector interface.
func (m *RouterMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.SnapshotsReceived
	ch <- m.HandshakeLatency
	m.Handshakes.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *RouterMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.SnapshotsReceived.Desc()
	ch <- m.HandshakeLatency.Desc()
	m.Handshakes.Describe(ch)
}
