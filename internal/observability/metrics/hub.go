// Package metrics provides custom Prometheus metrics for the hub and
// router processes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HubMetrics contains all Prometheus metrics related to hub tick execution.
type HubMetrics struct {
	TicksTotal        prometheus.Counter
	CaptureFailures   prometheus.Counter
	DevicesLive       prometheus.Gauge
	PeopleCounted     prometheus.Counter
	PayloadsSent      prometheus.Counter
	DetectionLatency  prometheus.Histogram
	CommandsProcessed *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewHubMetrics creates a new instance of HubMetrics.
// It requires a Prometheus registry to register the metrics.
func NewHubMetrics(registry *prometheus.Registry) (*HubMetrics, error) {
	m := &HubMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register hub metrics: %w", err)
	}
	return m, nil
}

func (m *HubMetrics) initMetrics() {
	m.TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hub_ticks_total",
		Help: "Total number of completed capture-detect-publish ticks",
	})
	m.CaptureFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hub_capture_failures_total",
		Help: "Total number of per-device captures omitted from a tick",
	})
	m.DevicesLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hub_devices_live",
		Help: "Number of currently open capture devices",
	})
	m.PeopleCounted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hub_people_counted_total",
		Help: "Sum of per-sensor person counts across all ticks",
	})
	m.PayloadsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hub_payloads_sent_total",
		Help: "Total number of UDP data payloads sent",
	})
	m.DetectionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hub_detection_latency_seconds",
		Help:    "Latency of one batched detection call",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
	m.CommandsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_commands_processed_total",
		Help: "Total number of commands applied, by verb",
	}, []string{"verb"})
}

// Collect implements the prometheus.Collector interface.
func (m *HubMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.TicksTotal
	ch <- m.CaptureFailures
	ch <- m.DevicesLive
	ch <- m.PeopleCounted
	ch <- m.PayloadsSent
	ch <- m.DetectionLatency
	m.CommandsProcessed.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *HubMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.TicksTotal.Desc()
	ch <- m.CaptureFailures.Desc()
	ch <- m.DevicesLive.Desc()
	ch <- m.PeopleCounted.Desc()
	ch <- m.PayloadsSent.Desc()
	ch <- m.DetectionLatency.Desc()
	m.CommandsProcessed.Describe(ch)
}
