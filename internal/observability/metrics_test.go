package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	require.NotNil(t, m.Hub)
	require.NotNil(t, m.Router)

	m.Hub.TicksTotal.Inc()
	m.Hub.PeopleCounted.Add(3)
	m.Hub.CommandsProcessed.WithLabelValues("capture").Inc()
	m.Router.SnapshotsReceived.Inc()
	m.Router.Handshakes.WithLabelValues("success").Inc()
	m.Router.HandshakeLatency.Observe(0.12)
}

func TestMetricsEndpointServes(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Hub.TicksTotal.Inc()
	m.Router.SnapshotsReceived.Inc()

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hub_ticks_total")
	assert.Contains(t, body, "router_snapshots_received_total")
}
