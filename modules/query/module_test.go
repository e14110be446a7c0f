package query_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/query"
	"github.com/vk/tracegrid/modules/storage"
	"github.com/vk/tracegrid/modules/storage/memory"
)

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestQuery_Routes(t *testing.T) {
	// --- Arrange ---
	catalog := module.NewCatalog().MustRegister(core.New, memory.New, query.New)
	seq := boottest.MustRun(t, catalog, `
module "core" {
  provider "default" {
    searchable_tag_keys = "http.method,error"
  }
}

module "storage" {
  provider "memory" {}
}

module "query-zipkin" {
  provider "default" {
    host = "127.0.0.1"
    port = 0
  }
}
`)
	writer := boottest.Find[storage.SpanWriter](t, seq, storage.Name)
	web := &core.Endpoint{ServiceName: "web"}
	require.NoError(t, writer.WriteSpans(context.Background(), []core.Span{
		{TraceID: "48485a3953bb6124", ID: "0000000000000002", Name: "render", Timestamp: 2, LocalEndpoint: web},
		{TraceID: "48485a3953bb6124", ID: "0000000000000001", Name: "get /", Timestamp: 1, LocalEndpoint: web},
		{TraceID: "0000000000000009", ID: "0000000000000003", Name: "select", LocalEndpoint: &core.Endpoint{ServiceName: "db"}},
	}))
	base := fmt.Sprintf("http://%s/api/v2", boottest.Find[core.HTTPEndpoint](t, seq, query.Name).Addr())

	// --- Act & Assert ---
	var services []string
	assert.Equal(t, http.StatusOK, get(t, base+"/services", &services))
	assert.Equal(t, []string{"db", "web"}, services)

	var names []string
	assert.Equal(t, http.StatusOK, get(t, base+"/spans?serviceName=web", &names))
	assert.Equal(t, []string{"get /", "render"}, names)
	assert.Equal(t, http.StatusBadRequest, get(t, base+"/spans", nil))

	var trace []core.Span
	assert.Equal(t, http.StatusOK, get(t, base+"/trace/48485A3953BB6124", &trace))
	require.Len(t, trace, 2)
	assert.Equal(t, "0000000000000001", trace[0].ID)

	var short []core.Span
	assert.Equal(t, http.StatusOK, get(t, base+"/trace/9", &short), "short trace ids are padded")
	require.Len(t, short, 1)
	assert.Equal(t, "select", short[0].Name)

	var keys []string
	assert.Equal(t, http.StatusOK, get(t, base+"/autocompleteKeys", &keys))
	assert.Equal(t, []string{"http.method", "error"}, keys)

	assert.Equal(t, http.StatusNotFound, get(t, base+"/trace/ffffffffffffffff", nil))
}
