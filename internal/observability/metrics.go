// Package observability provides metrics and monitoring capabilities for
// the hub and router processes.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Hub      *metrics.HubMetrics
	Router   *metrics.RouterMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	hubMetrics, err := metrics.NewHubMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub metrics: %w", err)
	}

	routerMetrics, err := metrics.NewRouterMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create router metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Hub:      hubMetrics,
		Router:   routerMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
