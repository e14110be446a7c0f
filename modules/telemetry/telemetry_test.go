package telemetry_test

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/lifecycle"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/telemetry"
)

func catalog() *module.Catalog {
	return module.NewCatalog().MustRegister(telemetry.NewNone, telemetry.NewPrometheus)
}

func TestNone_DiscardsUpdates(t *testing.T) {
	seq := boottest.MustRun(t, catalog(), `
module "telemetry" {
  selector = "none"
}
`)

	creator := boottest.Find[telemetry.MetricsCreator](t, seq, telemetry.Name)
	counter, err := creator.Counter("spans_total", "help", "outcome")
	require.NoError(t, err)
	histogram, err := creator.Histogram("latency_seconds", "help", nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		counter.Inc("accepted")
		counter.Add(2, "dropped")
		histogram.Observe(0.2)
	})
}

func TestPrometheus_ServesMetrics(t *testing.T) {
	// --- Arrange ---
	seq := boottest.MustRun(t, catalog(), `
module "telemetry" {
  provider "prometheus" {
    host = "127.0.0.1"
    port = 0
  }
}
`)
	creator := boottest.Find[telemetry.MetricsCreator](t, seq, telemetry.Name)
	endpoint := boottest.Find[core.HTTPEndpoint](t, seq, telemetry.Name)

	// --- Act ---
	counter, err := creator.Counter("tracegrid_test_spans_total", "Spans seen.", "outcome")
	require.NoError(t, err)
	counter.Inc("accepted")
	again, err := creator.Counter("tracegrid_test_spans_total", "Spans seen.", "outcome")
	require.NoError(t, err)
	again.Add(2, "accepted")

	histogram, err := creator.Histogram("tracegrid_test_latency_seconds", "Latency.", []float64{0.1, 1}, "route")
	require.NoError(t, err)
	histogram.Observe(0.5, "/api/v2/spans")

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", endpoint.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tracegrid_test_spans_total{outcome="accepted"} 3`)
	assert.Contains(t, string(body), `tracegrid_test_latency_seconds_bucket{route="/api/v2/spans",le="1"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestPrometheus_ConflictingMetricFails(t *testing.T) {
	seq := boottest.MustRun(t, catalog(), `
module "telemetry" {
  provider "prometheus" {
    host = "127.0.0.1"
    port = 0
  }
}
`)
	creator := boottest.Find[telemetry.MetricsCreator](t, seq, telemetry.Name)

	_, err := creator.Counter("tracegrid_test_conflict", "help", "a")
	require.NoError(t, err)
	_, err = creator.Counter("tracegrid_test_conflict", "help", "a", "b")

	assert.ErrorContains(t, err, "failed to register metric")
}

func TestPrometheus_PortConflictFailsStart(t *testing.T) {
	// --- Arrange ---
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	// --- Act ---
	seq, err := boottest.Run(t, catalog(), fmt.Sprintf(`
module "telemetry" {
  provider "prometheus" {
    host = "127.0.0.1"
    port = %d
  }
}
`, port))

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorContains(t, err, "boot failed during start")
	state, _ := seq.State(telemetry.Name)
	assert.Equal(t, lifecycle.Failed, state)
}
