package receiver_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boot"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/vk/tracegrid/modules/receiver"
	"github.com/vk/tracegrid/modules/storage"
	"github.com/vk/tracegrid/modules/storage/memory"
	"github.com/vk/tracegrid/modules/telemetry"
)

const pipeline = `
module "receiver-zipkin-http" {
  provider "default" {
    host           = "127.0.0.1"
    port           = 0
    context_path   = "/zipkin"
    max_body_bytes = 2048
  }
}

module "core" {
  provider "default" {
    service_name_max_length = 8
  }
}

module "storage" {
  provider "memory" {}
}

module "exporter" {
  selector = "none"
}

module "telemetry" {
  selector = "none"
}
`

func catalog() *module.Catalog {
	return module.NewCatalog().MustRegister(
		core.New, memory.New, exporter.NewNone, telemetry.NewNone, receiver.New,
	)
}

func bootPipeline(t *testing.T) (*boot.Sequencer, string) {
	t.Helper()
	seq := boottest.MustRun(t, catalog(), pipeline)
	endpoint := boottest.Find[core.HTTPEndpoint](t, seq, receiver.Name)
	return seq, fmt.Sprintf("http://%s/zipkin/api/v2/spans", endpoint.Addr())
}

const batch = `[{
  "traceId": "463ac35c9f6413ad48485a3953bb6124",
  "id": "a2fb4a1d1a96d312",
  "name": "get /users",
  "timestamp": 1700000000000000,
  "duration": 1200,
  "localEndpoint": {"serviceName": "frontend-gateway"},
  "tags": {"http.method": "GET"}
}]`

func TestReceiver_BootOrder(t *testing.T) {
	seq, _ := bootPipeline(t)

	assert.Equal(t,
		[]string{"core", "storage", "exporter", "telemetry", "receiver-zipkin-http"},
		seq.Order().Modules())
}

func TestReceiver_AcceptsJSON(t *testing.T) {
	// --- Arrange ---
	seq, url := bootPipeline(t)

	// --- Act ---
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(batch))
	require.NoError(t, err)
	_ = resp.Body.Close()

	// --- Assert ---
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	reader := boottest.Find[storage.TraceReader](t, seq, storage.Name)
	trace, err := reader.Trace(context.Background(), "463ac35c9f6413ad48485a3953bb6124")
	require.NoError(t, err)
	require.Len(t, trace, 1)
	assert.Equal(t, "frontend", trace[0].ServiceName(), "service names are truncated by core")
	assert.Equal(t, "GET", trace[0].Tags["http.method"])
}

func TestReceiver_AcceptsGzip(t *testing.T) {
	seq, url := bootPipeline(t)
	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	_, err := gz.Write([]byte(batch))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	services, err := boottest.Find[storage.TraceReader](t, seq, storage.Name).ServiceNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend"}, services)
}

func TestReceiver_RejectsBadInput(t *testing.T) {
	_, url := bootPipeline(t)

	testCases := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "not json", contentType: "application/json", body: "{oops"},
		{name: "not a list", contentType: "application/json", body: `{"traceId": "x"}`},
		{name: "invalid span", contentType: "application/json", body: `[{"traceId": "xyz", "id": "a2fb4a1d1a96d312"}]`},
		{name: "wrong content type", contentType: "application/x-thrift", body: "[]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(url, tc.contentType, bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestReceiver_OversizedBodyIsRejected(t *testing.T) {
	_, url := bootPipeline(t)
	body := "[" + string(bytes.Repeat([]byte(" "), 4096)) + "]"

	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestReceiver_AcceptsShortIDs(t *testing.T) {
	// --- Arrange ---
	seq, url := bootPipeline(t)
	body := `[{"traceId": "463ac35c9f6413ad", "id": "a2fb4a1d1a96d31", "parentId": "1", "name": "get"}]`

	// --- Act ---
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	_ = resp.Body.Close()

	// --- Assert ---
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	trace, err := boottest.Find[storage.TraceReader](t, seq, storage.Name).Trace(context.Background(), "463ac35c9f6413ad")
	require.NoError(t, err)
	require.Len(t, trace, 1)
	assert.Equal(t, "0a2fb4a1d1a96d31", trace[0].ID)
	assert.Equal(t, "0000000000000001", trace[0].ParentID)
}

func TestReceiver_RequiresAllDependencies(t *testing.T) {
	_, err := boottest.Run(t, catalog(), `
module "core" {
  provider "default" {}
}

module "receiver-zipkin-http" {
  provider "default" {
    port = 0
  }
}
`)

	assert.ErrorContains(t, err, `requires module "storage", which is not configured`)
}
